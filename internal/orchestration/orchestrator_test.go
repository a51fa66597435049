package orchestration

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
	fake "github.com/imamik/spotcluster/internal/testing"
)

var suiteNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var fastTimeouts = &config.Timeouts{
	PollInterval:      time.Millisecond,
	SlowAfterPolls:    5,
	InstanceRunning:   2 * time.Second,
	InstanceTerminate: 2 * time.Second,
	RetryMaxAttempts:  1,
	RetryInitialDelay: time.Millisecond,
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx        context.Context
		cloud      *fake.FakeCloud
		store      *fake.MemoryStore
		registry   *prometheus.Registry
		cfg        *config.Config
		priceLoads int
		orch       *Orchestrator
	)

	build := func(opts ...Option) *Orchestrator {
		base := []Option{
			WithPriceLoader(func(context.Context, *config.Config) (pricing.OnDemandSource, error) {
				priceLoads++
				return fake.NewCatalog(), nil
			}),
			WithMetrics(provisioning.NewMetrics(registry)),
			WithRand(rand.New(rand.NewPCG(1, 2))),
			WithClock(fake.FixedClock(suiteNow)),
			WithTimeouts(fastTimeouts),
		}
		return New(cloud, store, append(base, opts...)...)
	}

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		DeferCleanup(cancel)

		keyDir, err := os.MkdirTemp("", "spotcluster-keys")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, keyDir)

		cloud = fake.NewFakeCloud("us-east-1")
		store = fake.NewMemoryStore()
		registry = prometheus.NewRegistry()
		cfg = fake.NewConfigBuilder().WithKeyDir(keyDir).Build()
		priceLoads = 0
		orch = build()
	})

	Describe("Create", func() {
		It("provisions every resource and persists the record", func() {
			rec, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.NetworkID).NotTo(BeEmpty())
			Expect(rec.Subnets).To(HaveLen(3))
			Expect(rec.ControllerInstanceID).NotTo(BeEmpty())
			Expect(rec.Bid).NotTo(BeNil())
			Expect(rec.FleetRequestID).NotTo(BeEmpty())
			Expect(cloud.LiveResources()).To(ContainElements(
				rec.NetworkID, rec.GatewayID, rec.Storage.ID, rec.ControllerInstanceID, rec.FleetRequestID))
			_, imported := cloud.KeyPair(rec.KeyPairName)
			Expect(imported).To(BeTrue())

			stored, err := store.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ResourceIDs()).To(Equal(rec.ResourceIDs()))
			Expect(priceLoads).To(Equal(1))
		})

		It("records phase metrics", func() {
			_, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			n, err := testutil.GatherAndCount(registry, "spotcluster_provisioning_phase_duration_seconds")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(11))
		})

		It("creates nothing new when run again", func() {
			first, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			second, err := build().Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ResourceIDs()).To(Equal(first.ResourceIDs()))
			Expect(cloud.CallCount("CreateVPC")).To(Equal(1))
			Expect(cloud.CallCount("RunInstance")).To(Equal(1))
			Expect(cloud.CallCount("RequestSpotFleet")).To(Equal(1))
			Expect(priceLoads).To(Equal(1), "the recorded bid is reused")
		})

		It("resumes after a failed fleet request", func() {
			cloud.Fail("RequestSpotFleet", errors.New("MaxSpotFleetRequestCountExceeded"))

			rec, err := orch.Create(ctx, cfg)
			Expect(err).To(MatchError(ContainSubstring("fleet phase failed")))
			Expect(rec.ControllerInstanceID).NotTo(BeEmpty())
			Expect(rec.FleetRequestID).To(BeEmpty())

			cloud.Fail("RequestSpotFleet", nil)
			rec, err = build().Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.FleetRequestID).NotTo(BeEmpty())
			Expect(cloud.CallCount("RunInstance")).To(Equal(1))
		})

		It("rejects an invalid configuration before any provider call", func() {
			cfg.Fleet.TargetCapacity = 0

			_, err := orch.Create(ctx, cfg)
			Expect(config.IsConfigurationError(err)).To(BeTrue())
			Expect(cloud.Calls()).To(BeEmpty())
			Expect(store.Exists()).To(BeFalse())
		})

		It("stops before creating anything when prices cannot be loaded", func() {
			orch = build(WithPriceLoader(func(context.Context, *config.Config) (pricing.OnDemandSource, error) {
				return nil, pricing.ErrPricingDataUnavailable
			}))

			_, err := orch.Create(ctx, cfg)
			Expect(err).To(MatchError(pricing.ErrPricingDataUnavailable))
			Expect(cloud.Calls()).To(BeEmpty())
		})

		It("refuses a record that belongs to another cluster", func() {
			other := fake.NewConfigBuilder().WithClusterName("other").Build()
			Expect(store.Save(ctx, fake.NewRecord(other))).To(Succeed())

			_, err := orch.Create(ctx, cfg)
			Expect(err).To(MatchError(ContainSubstring("validation phase failed")))
			Expect(cloud.Calls()).To(BeEmpty())
		})
	})

	Describe("Dismantle", func() {
		It("removes everything but the kept volume and retires the record", func() {
			rec, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			report, err := build().Dismantle(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.OK()).To(BeTrue())
			Expect(cloud.LiveResources()).To(Equal([]string{rec.Storage.ID}))
			Expect(store.Exists()).To(BeFalse())
		})

		It("removes the volume when it is not kept", func() {
			cfg.Storage.KeepOnTeardown = false
			_, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = build().Dismantle(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.LiveResources()).To(BeEmpty())
		})

		It("tears down a partial record left by a failed create", func() {
			cfg.Storage.KeepOnTeardown = false
			cloud.Fail("CreateVolume", errors.New("VolumeLimitExceeded"))
			_, err := orch.Create(ctx, cfg)
			Expect(err).To(HaveOccurred())

			report, err := build().Dismantle(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Removed).NotTo(BeEmpty())
			Expect(cloud.LiveResources()).To(BeEmpty())
			Expect(store.Exists()).To(BeFalse())
		})

		It("keeps the record when a step fails", func() {
			_, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			cloud.Fail("DeleteVPC", errors.New("DependencyViolation"))

			report, err := build().Dismantle(ctx, cfg)
			Expect(err).To(HaveOccurred())
			Expect(report.Failures).To(HaveLen(1))
			Expect(report.Failures[0].Step).To(Equal("vpc"))
			Expect(store.Exists()).To(BeTrue())

			cloud.Fail("DeleteVPC", nil)
			report, err = build().Dismantle(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Missing).NotTo(BeEmpty())
			Expect(store.Exists()).To(BeFalse())
		})

		It("refuses a record from another region without touching the provider", func() {
			_, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			live := cloud.LiveResources()

			elsewhere := fake.NewFakeCloud("eu-west-1")
			other := *cfg
			other.Region = "eu-west-1"
			report, err := New(elsewhere, store, WithTimeouts(fastTimeouts)).Dismantle(ctx, &other)
			Expect(err).To(MatchError(ErrRecordMismatch))
			Expect(report).To(BeNil())
			Expect(elsewhere.Calls()).To(BeEmpty())
			Expect(store.Exists()).To(BeTrue())
			Expect(cloud.LiveResources()).To(Equal(live))
		})

		It("refuses a record that names another cluster", func() {
			_, err := orch.Create(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
			calls := len(cloud.Calls())

			other := *cfg
			other.ClusterName = "someone-else"
			_, err = build().Dismantle(ctx, &other)
			Expect(err).To(MatchError(ErrRecordMismatch))
			Expect(cloud.Calls()).To(HaveLen(calls))
			Expect(store.Exists()).To(BeTrue())
		})

		It("reports a missing record", func() {
			_, err := orch.Dismantle(ctx, cfg)
			Expect(err).To(MatchError(ErrNoRecord))
			Expect(err).To(MatchError(record.ErrNotFound))
			Expect(cloud.Calls()).To(BeEmpty())
		})
	})
})
