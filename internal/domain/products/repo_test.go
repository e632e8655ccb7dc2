package products

import (
	"context"
	"testing"

	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// subgroupOwners отвечает на SELECT group_id FROM product_subgroups.
type subgroupOwners struct {
	querier
	owners map[int64]int64
}

type ownerRow struct {
	owner int64
	err   error
}

func (r ownerRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.owner
	return nil
}

func (q subgroupOwners) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	owner, ok := q.owners[args[0].(int64)]
	if !ok {
		return ownerRow{err: pgx.ErrNoRows}
	}
	return ownerRow{owner: owner}
}

func ptr(v int64) *int64 { return &v }

func TestCheckSubgroup(t *testing.T) {
	ctx := context.Background()
	q := subgroupOwners{owners: map[int64]int64{10: 1, 20: 2}}

	require.NoError(t, checkSubgroup(ctx, q, nil, nil))
	require.NoError(t, checkSubgroup(ctx, q, ptr(1), nil))
	require.NoError(t, checkSubgroup(ctx, q, ptr(1), ptr(10)))

	require.ErrorIs(t, checkSubgroup(ctx, q, ptr(1), ptr(20)), ErrSubgroupMismatch)
	require.ErrorIs(t, checkSubgroup(ctx, q, nil, ptr(10)), ErrSubgroupMismatch)
	require.ErrorIs(t, checkSubgroup(ctx, q, ptr(1), ptr(99)), db.ErrBadRef)
}

func TestPatchApplyGroupChange(t *testing.T) {
	p := Product{GroupID: ptr(1), SubgroupID: ptr(10)}
	Patch{GroupID: ptr(2)}.Apply(&p)
	require.Equal(t, int64(2), *p.GroupID)
	require.Nil(t, p.SubgroupID, "subgroup of the old group is dropped")

	p = Product{GroupID: ptr(1), SubgroupID: ptr(10)}
	Patch{GroupID: ptr(1)}.Apply(&p)
	require.Equal(t, int64(10), *p.SubgroupID)

	// подгруппа чужой группы остаётся в записи и отсекается checkSubgroup
	p = Product{GroupID: ptr(1), SubgroupID: ptr(10)}
	Patch{SubgroupID: ptr(20)}.Apply(&p)
	require.Equal(t, int64(20), *p.SubgroupID)
	q := subgroupOwners{owners: map[int64]int64{10: 1, 20: 2}}
	require.ErrorIs(t, checkSubgroup(context.Background(), q, p.GroupID, p.SubgroupID), ErrSubgroupMismatch)
}
