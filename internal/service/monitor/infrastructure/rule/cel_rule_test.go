package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCelAlertRule_DefaultExpression(t *testing.T) {
	r, err := NewCelAlertRule("quantity < threshold", 5)
	require.NoError(t, err)

	tests := []struct {
		quantity int
		want     bool
	}{
		{quantity: 0, want: true},
		{quantity: 4, want: true},
		{quantity: 5, want: false},
		{quantity: 100, want: false},
	}
	for _, tt := range tests {
		got, err := r.ShouldAlert("widget", tt.quantity)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "quantity %d", tt.quantity)
	}
}

func TestCelAlertRule_CanReferenceProduct(t *testing.T) {
	// 表达式可以对特定商品使用不同的阈值
	r, err := NewCelAlertRule(`product == "gold-widget" ? quantity < 20 : quantity < threshold`, 5)
	require.NoError(t, err)

	got, err := r.ShouldAlert("gold-widget", 10)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = r.ShouldAlert("widget", 10)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestNewCelAlertRule_RejectsInvalidExpression(t *testing.T) {
	_, err := NewCelAlertRule("quantity <", 5)
	assert.Error(t, err)
}

func TestNewCelAlertRule_RejectsNonBoolExpression(t *testing.T) {
	_, err := NewCelAlertRule("quantity - threshold", 5)
	assert.Error(t, err)
}

func TestNewCelAlertRule_RejectsUnknownVariable(t *testing.T) {
	_, err := NewCelAlertRule("stock < threshold", 5)
	assert.Error(t, err)
}
