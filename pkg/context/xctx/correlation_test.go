package xctx_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CorrelationID 读写测试
// =============================================================================

func TestCorrelationID(t *testing.T) {
	t.Run("未设置时返回不存在", func(t *testing.T) {
		id, ok := xctx.CorrelationID(context.Background())
		assert.False(t, ok)
		assert.Empty(t, id)
	})

	t.Run("写入后可读", func(t *testing.T) {
		ctx, err := xctx.WithCorrelationID(context.Background(), "order-42")
		require.NoError(t, err)
		id, ok := xctx.CorrelationID(ctx)
		assert.True(t, ok)
		assert.Equal(t, "order-42", id)
	})

	t.Run("nil context", func(t *testing.T) {
		var nilCtx context.Context
		_, ok := xctx.CorrelationID(nilCtx)
		assert.False(t, ok)

		_, err := xctx.WithCorrelationID(nilCtx, "x")
		assert.ErrorIs(t, err, xctx.ErrNilContext)
	})

	t.Run("空值拒绝写入", func(t *testing.T) {
		_, err := xctx.WithCorrelationID(context.Background(), "")
		assert.ErrorIs(t, err, xctx.ErrEmptyCorrelationID)
	})
}

func TestCorrelationID_ReadDoesNotCreate(t *testing.T) {
	ctx := context.Background()

	for range 3 {
		_, ok := xctx.CorrelationID(ctx)
		require.False(t, ok)
	}
	// EnsureCorrelationID 之后原 ctx 仍然不可见
	_, _, err := xctx.EnsureCorrelationID(ctx)
	require.NoError(t, err)
	_, ok := xctx.CorrelationID(ctx)
	assert.False(t, ok)
}

func TestEnsureCorrelationID(t *testing.T) {
	t.Run("缺失时生成 UUID", func(t *testing.T) {
		ctx, id, err := xctx.EnsureCorrelationID(context.Background())
		require.NoError(t, err)
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr)

		got, ok := xctx.CorrelationID(ctx)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("已存在时沿用", func(t *testing.T) {
		ctx, err := xctx.WithCorrelationID(context.Background(), "keep-me")
		require.NoError(t, err)
		ctx2, id, err := xctx.EnsureCorrelationID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "keep-me", id)
		assert.Equal(t, ctx, ctx2)
	})

	t.Run("nil context", func(t *testing.T) {
		var nilCtx context.Context
		_, _, err := xctx.EnsureCorrelationID(nilCtx)
		assert.ErrorIs(t, err, xctx.ErrNilContext)
	})
}

func TestSetGenerator(t *testing.T) {
	t.Cleanup(func() { xctx.SetGenerator(nil) })

	xctx.SetGenerator(func() (string, error) { return "sf-1", nil })
	_, id, err := xctx.EnsureCorrelationID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sf-1", id)

	t.Run("失败或空值回退到 UUID", func(t *testing.T) {
		for _, gen := range []xctx.IDGenerator{
			func() (string, error) { return "", errors.New("clock moved backwards") },
			func() (string, error) { return "", nil },
		} {
			xctx.SetGenerator(gen)
			_, id, err := xctx.EnsureCorrelationID(context.Background())
			require.NoError(t, err)
			_, parseErr := uuid.Parse(id)
			assert.NoError(t, parseErr)
		}
	})

	xctx.SetGenerator(nil)
	_, id, err = xctx.EnsureCorrelationID(context.Background())
	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
}

func TestRequireCorrelationID(t *testing.T) {
	_, err := xctx.RequireCorrelationID(context.Background())
	assert.ErrorIs(t, err, xctx.ErrMissingCorrelationID)

	ctx, err := xctx.WithCorrelationID(context.Background(), "abc")
	require.NoError(t, err)
	id, err := xctx.RequireCorrelationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestClearCorrelationID(t *testing.T) {
	parent, err := xctx.WithCorrelationID(context.Background(), "parent-id")
	require.NoError(t, err)

	child, err := xctx.ClearCorrelationID(parent)
	require.NoError(t, err)

	_, ok := xctx.CorrelationID(child)
	assert.False(t, ok, "清除后子 context 不可见")

	id, ok := xctx.CorrelationID(parent)
	assert.True(t, ok, "父 context 不受影响")
	assert.Equal(t, "parent-id", id)

	// 清除后可以重新生成
	_, regenerated, err := xctx.EnsureCorrelationID(child)
	require.NoError(t, err)
	assert.NotEqual(t, "parent-id", regenerated)
}

// =============================================================================
// 并发隔离
// =============================================================================

func TestEnsureCorrelationID_ConcurrentIsolation(t *testing.T) {
	root := context.Background()
	const flows = 64

	ids := make([]string, flows)
	var wg sync.WaitGroup
	for i := range flows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, id, err := xctx.EnsureCorrelationID(root)
			if err != nil {
				return
			}
			// 流程内部的后续读取看到同一个值
			got, _ := xctx.CorrelationID(ctx)
			if got != id {
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, flows)
	for i, id := range ids {
		require.NotEmptyf(t, id, "flow %d", i)
		_, dup := seen[id]
		require.Falsef(t, dup, "flow %d 得到重复 ID %s", i, id)
		seen[id] = struct{}{}
	}
	_, ok := xctx.CorrelationID(root)
	assert.False(t, ok, "根 context 不应被任何流程修改")
}

// =============================================================================
// Detach
// =============================================================================

type otherKey struct{}

func TestDetach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, otherKey{}, "kept")
	ctx, err := xctx.WithCorrelationID(ctx, "req-1")
	require.NoError(t, err)
	ctx, err = xctx.WithTrace(ctx, xctx.Trace{TraceID: "t", SpanID: "s", TraceFlags: "01"})
	require.NoError(t, err)

	bg := xctx.Detach(ctx)
	cancel()

	assert.NoError(t, bg.Err(), "不继承取消信号")
	assert.Equal(t, "kept", bg.Value(otherKey{}))
	_, ok := xctx.CorrelationID(bg)
	assert.False(t, ok)
	assert.False(t, xctx.GetTrace(bg).IsComplete())
	assert.Empty(t, xctx.TraceFlags(bg))

	var nilCtx context.Context
	assert.NotNil(t, xctx.Detach(nilCtx))
}

func ExampleDetach() {
	ctx, _ := xctx.WithCorrelationID(context.Background(), "req-7")

	bg := xctx.Detach(ctx)
	_, inherited := xctx.CorrelationID(bg)
	fmt.Println("inherited:", inherited)

	bg, _ = xctx.WithCorrelationID(bg, "req-7")
	id, _ := xctx.CorrelationID(bg)
	fmt.Println("explicit:", id)
	// Output:
	// inherited: false
	// explicit: req-7
}
