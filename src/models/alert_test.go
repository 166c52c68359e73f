package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSatisfiedPriceRules(t *testing.T) {
	above := MAlertCondition{Rule: AlertPriceAbove, Threshold: 200}
	below := MAlertCondition{Rule: AlertPriceBelow, Threshold: 200}

	assert.True(t, above.Satisfied(&MQuote{Price: 231.5}))
	assert.True(t, above.Satisfied(&MQuote{Price: 200}))
	assert.False(t, above.Satisfied(&MQuote{Price: 199.99}))

	assert.True(t, below.Satisfied(&MQuote{Price: 199.99}))
	assert.True(t, below.Satisfied(&MQuote{Price: 200}))
	assert.False(t, below.Satisfied(&MQuote{Price: 231.5}))
}

func TestSatisfiedPercentChangeIsBidirectional(t *testing.T) {
	cond := MAlertCondition{Rule: AlertPercentChange, Threshold: 5}

	assert.True(t, cond.Satisfied(&MQuote{ChangePercent: 6.1}))
	assert.True(t, cond.Satisfied(&MQuote{ChangePercent: -6.1}))
	assert.True(t, cond.Satisfied(&MQuote{ChangePercent: 5}))
	assert.False(t, cond.Satisfied(&MQuote{ChangePercent: 4.9}))
	assert.False(t, cond.Satisfied(&MQuote{ChangePercent: -4.9}))
}

func TestSatisfiedUnknownRule(t *testing.T) {
	cond := MAlertCondition{Rule: "volume_spike", Threshold: 1}
	assert.False(t, cond.Satisfied(&MQuote{Price: 100}))
}
