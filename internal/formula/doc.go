// Package formula вычисляет строковые формулы калькулятора
// (`wood_volume * 0.85`, `with_glass ? area * 1.2 : area`) над плоским
// набором именованных параметров.
//
// Разбор и вычисление выполняет hclsyntax: грамматика HCL-выражений
// покрывает арифметику, сравнения, логические операторы и тернарный
// оператор. Поверх неё Compile запрещает всё, что не является числом,
// булевым значением, именем параметра или вызовом разрешённой функции.
package formula
