package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// TestInitMetrics 重复调用不会重复注册
func TestInitMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, SettlementsTotal)
	assert.NotNil(t, SagaCompensationsTotal)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "conflict", Outcome(apperrors.New(apperrors.ErrCodeStockConflict, "x")))
	assert.Equal(t, "validation", Outcome(apperrors.New(apperrors.ErrCodeEmptyCart, "x")))
	assert.Equal(t, "internal", Outcome(errors.New("db down")))
}

func TestTrackSettlement(t *testing.T) {
	InitMetrics()
	before := testutil.ToFloat64(SettlementsTotal.WithLabelValues("conflict"))

	done := TrackSettlement()
	assert.Equal(t, float64(1), testutil.ToFloat64(SettlementsInProgress))
	done(apperrors.New(apperrors.ErrCodeStockConflict, "x"))

	assert.Equal(t, float64(0), testutil.ToFloat64(SettlementsInProgress))
	assert.Equal(t, before+1, testutil.ToFloat64(SettlementsTotal.WithLabelValues("conflict")))
}

func TestRecordCancellation(t *testing.T) {
	InitMetrics()
	before := testutil.ToFloat64(RefundedCreditsTotal)

	RecordCancellation("cancelled", 1599)
	RecordCancellation("noop", 0)

	assert.Equal(t, before+1599, testutil.ToFloat64(RefundedCreditsTotal))
	assert.GreaterOrEqual(t, testutil.ToFloat64(CancellationsTotal.WithLabelValues("noop")), float64(1))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("POST", "/api/v1/cart/checkout", "200", 20*time.Millisecond)
	RecordHTTPRequest("POST", "/api/v1/cart/checkout", "200", 30*time.Millisecond)

	assert.GreaterOrEqual(t,
		testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/cart/checkout", "200")),
		float64(2))
}

func TestRecordSagaAndCompensation(t *testing.T) {
	InitMetrics()
	before := testutil.ToFloat64(SagaCompensationsTotal.WithLabelValues("failure"))

	RecordSaga("settle", errors.New("x"), time.Millisecond)
	RecordCompensation(errors.New("x"))

	assert.Equal(t, before+1, testutil.ToFloat64(SagaCompensationsTotal.WithLabelValues("failure")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(SagaExecutionsTotal.WithLabelValues("settle", "failure")), float64(1))
}
