// Package notify рассылает оповещения о заканчивающихся материалах в Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/materials"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const uncategorised = "Без категории"

// Sender — часть *tgbotapi.BotAPI, которая нужна для рассылки.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type StockNotifier struct {
	api        Sender
	log        *slog.Logger
	adminChat  int64
	recipients []int64
	alerts     prometheus.Counter
}

// NewStockNotifier: api == nil — только запись в лог.
func NewStockNotifier(api Sender, log *slog.Logger, adminChat int64, recipients []int64, alerts prometheus.Counter) *StockNotifier {
	return &StockNotifier{api: api, log: log, adminChat: adminChat, recipients: recipients, alerts: alerts}
}

// NewTelegram подключается к Bot API; пустой токен — нет клиента.
func NewTelegram(token string) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	return tgbotapi.NewBotAPI(token)
}

// NotifyLowStock берёт из items заканчивающиеся материалы и шлёт по одному
// сообщению на категорию. Ошибки отправки только логируются.
func (n *StockNotifier) NotifyLowStock(ctx context.Context, items []materials.Item) {
	msgs := Messages(items)
	if len(msgs) == 0 {
		return
	}
	low := 0
	for _, it := range items {
		if it.LowStock() && it.Active && !it.Deleted() {
			low++
		}
	}
	if n.alerts != nil {
		n.alerts.Add(float64(low))
	}

	for _, text := range msgs {
		if ctx.Err() != nil {
			return
		}
		if n.api == nil {
			n.log.Info("low stock", "text", text)
			continue
		}
		n.broadcast(text)
	}
}

// broadcast шлёт текст в админ-чат и получателям, каждому chat_id один раз.
func (n *StockNotifier) broadcast(text string) {
	sent := map[int64]struct{}{}
	sendOnce := func(chatID int64) {
		if chatID == 0 {
			return
		}
		if _, ok := sent[chatID]; ok {
			return
		}
		sent[chatID] = struct{}{}
		if _, err := n.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.log.Error("telegram send failed", "chat_id", chatID, "err", err)
		}
	}

	sendOnce(n.adminChat)
	for _, id := range n.recipients {
		sendOnce(id)
	}
}

// Messages группирует заканчивающиеся материалы по категориям.
func Messages(items []materials.Item) []string {
	groups := map[string][]materials.Item{}
	seen := map[int64]struct{}{}
	for _, it := range items {
		if !it.LowStock() || !it.Active || it.Deleted() {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		cat := it.CategoryName
		if cat == "" {
			cat = uncategorised
		}
		groups[cat] = append(groups[cat], it)
	}

	cats := make([]string, 0, len(groups))
	for c := range groups {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	out := make([]string, 0, len(cats))
	for _, c := range cats {
		list := groups[c]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })

		var b strings.Builder
		b.WriteString("⚠️ Материалы:\n")
		fmt.Fprintf(&b, "— %s:\n", c)
		for _, it := range list {
			b.WriteString(line(it) + "\n")
		}
		out = append(out, strings.TrimSpace(b.String()))
	}
	return out
}

func line(it materials.Item) string {
	if it.Quantity <= 0 {
		return fmt.Sprintf("— %s (%s) — закончились.", it.Name, it.SKU)
	}
	return fmt.Sprintf("— %s (%s) — %s %s, порог %s — мало",
		it.Name, it.SKU, num(it.Quantity), it.Unit, num(it.MinQuantity))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
