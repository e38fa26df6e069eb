package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/threadline/storefront-backend/internal/metrics"
	"github.com/threadline/storefront-backend/pkg/logger"
)

const couponExpiryJob = "coupon_expiry"

// DefaultCouponExpirySpec runs the job daily at 03:00 server time.
const DefaultCouponExpirySpec = "0 3 * * *"

// CouponExpirer is the part of the coupon service the scheduler drives.
type CouponExpirer interface {
	DeactivateExpired() (int64, error)
}

// CouponExpiryScheduler switches off coupons whose validity window has ended
// so they drop out of admin listings. Validation already rejects them.
type CouponExpiryScheduler struct {
	cron    *cron.Cron
	spec    string
	coupons CouponExpirer
	metrics *metrics.CronJobMetrics
}

func NewCouponExpiryScheduler(coupons CouponExpirer, spec string, m *metrics.CronJobMetrics) *CouponExpiryScheduler {
	if spec == "" {
		spec = DefaultCouponExpirySpec
	}
	return &CouponExpiryScheduler{
		cron:    cron.New(),
		spec:    spec,
		coupons: coupons,
		metrics: m,
	}
}

func (s *CouponExpiryScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for coupon expiry", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Coupon expiry scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce deactivates expired coupons and records the run.
func (s *CouponExpiryScheduler) RunOnce() {
	started := time.Now()
	logger.Info("Starting scheduled coupon expiry")

	n, err := s.coupons.DeactivateExpired()
	s.metrics.ObserveDuration(couponExpiryJob, time.Since(started))
	if err != nil {
		s.metrics.IncFailure(couponExpiryJob)
		logger.Error("Scheduled coupon expiry failed", err)
		return
	}

	s.metrics.IncSuccess(couponExpiryJob)
	logger.Info("Scheduled coupon expiry finished", map[string]interface{}{
		"deactivated": n,
	})
}

// Stop waits for a running job to finish.
func (s *CouponExpiryScheduler) Stop() {
	logger.Info("Stopping coupon expiry scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Coupon expiry scheduler stopped")
}
