package atomics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpTypeCategories(t *testing.T) {
	for _, op := range AllOpTypes() {
		assert.True(t, op.Valid())
		switch {
		case op >= OpAdd:
			assert.True(t, op.IsArithmetic(), op.String())
			assert.True(t, op.IsBinaryOrArithmetic(), op.String())
		case op >= OpOr:
			assert.False(t, op.IsArithmetic(), op.String())
			assert.True(t, op.IsBinaryOrArithmetic(), op.String())
		default:
			assert.False(t, op.IsBinaryOrArithmetic(), op.String())
		}
	}
	assert.Len(t, AllOpTypes(), 27)
}

func TestOpTypeNames(t *testing.T) {
	assert.Equal(t, "Load", OpLoad.String())
	assert.Equal(t, "CmpxchgStrong", OpCmpxchgStrong.String())
	assert.Equal(t, "BitTestCompl", OpBitTestCompl.String())
	assert.Equal(t, "FetchNeg", OpFetchNeg.String())
	assert.Equal(t, "OpType(99)", OpType(99).String())
	assert.False(t, OpType(-1).Valid())
}

func TestOpTypePredicates(t *testing.T) {
	assert.True(t, OpCmpxchgWeak.IsCmpxchg())
	assert.False(t, OpExchange.IsCmpxchg())
	assert.True(t, OpBitTestReset.IsBitTest())
	assert.False(t, OpOr.IsBitTest())
	assert.True(t, OpExchange.IsFetch())
	assert.True(t, OpFetchDec.IsFetch())
	assert.False(t, OpAdd.IsFetch())
	assert.True(t, OpSub.takesOperand())
	assert.False(t, OpInc.takesOperand())
}
