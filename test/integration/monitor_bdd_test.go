//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/daemon"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
	"github.com/eliteGoblin/focusd/app_block/test/fixtures"
)

var _ = Describe("Monitor loop", func() {
	var (
		start     time.Time
		presenter *fixtures.RecordingPresenter
		gate      *usecase.AtomicGate
	)

	BeforeEach(func() {
		start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		presenter = &fixtures.RecordingPresenter{AutoDismiss: true}
		gate = usecase.NewInterventionGate()
	})

	// runTicks drives one tick per second starting at t=1s.
	runTicks := func(loop *usecase.MonitorLoop, n int) []domain.TickResult {
		results := make([]domain.TickResult, 0, n)
		for i := 1; i <= n; i++ {
			results = append(results, loop.Tick(context.Background(), start.Add(time.Duration(i)*time.Second)))
		}
		return results
	}

	newLoop := func(source domain.ForegroundEventSource) *usecase.MonitorLoop {
		return usecase.NewMonitorLoop(
			domain.NewTargetSet("x"),
			usecase.NewActivityObserver(source, time.Minute),
			gate,
			presenter,
			5*time.Second,
			zap.NewNop(),
		)
	}

	Context("when the user returns to a target inside the cooldown", func() {
		It("should intervene once and hold off the second transition", func() {
			source := fixtures.NewScriptedSource("", "x", "x", "y", "x")
			results := runTicks(newLoop(source), 5)

			Expect(presenter.Presented()).To(Equal([]domain.ApplicationID{"x"}))
			Expect(results[1].Intervened).To(BeTrue())
			for _, r := range results[2:] {
				Expect(r.Intervened).To(BeFalse())
				Expect(r.CooldownSkip).To(BeTrue())
			}
			// Cooldown skips never reach the host.
			Expect(source.Calls()).To(Equal(2))
		})
	})

	Context("when the user stays on a target", func() {
		It("should intervene on the first tick only", func() {
			source := fixtures.NewScriptedSource("x", "x", "x")
			loop := usecase.NewMonitorLoop(
				domain.NewTargetSet("x"),
				usecase.NewActivityObserver(source, time.Minute),
				gate,
				presenter,
				0,
				zap.NewNop(),
			)
			results := runTicks(loop, 3)

			Expect(presenter.Presented()).To(HaveLen(1))
			Expect(results[0].Intervened).To(BeTrue())
			Expect(results[1].Transition).To(BeFalse())
			Expect(results[2].Transition).To(BeFalse())
		})
	})

	Context("when the host stops answering", func() {
		It("should degrade and recover without intervening", func() {
			source := fixtures.NewScriptedSource("y", "x")
			source.FailWith(errors.New("permission revoked"))
			loop := newLoop(source)

			r := loop.Tick(context.Background(), start.Add(time.Second))
			Expect(r.Degraded).To(BeTrue())
			Expect(errors.Is(r.Err, domain.ErrObservationUnavailable)).To(BeTrue())

			source.FailWith(nil)
			runTicks(loop, 2)
			Expect(presenter.Presented()).To(Equal([]domain.ApplicationID{"x"}))
		})
	})

	Context("when a surface is still showing", func() {
		It("should suppress a new intervention until dismissed", func() {
			presenter.AutoDismiss = false
			source := fixtures.NewScriptedSource("x", "y", "x")
			loop := usecase.NewMonitorLoop(
				domain.NewTargetSet("x"),
				usecase.NewActivityObserver(source, time.Minute),
				gate,
				presenter,
				0,
				zap.NewNop(),
			)

			results := runTicks(loop, 3)
			Expect(results[0].Intervened).To(BeTrue())
			Expect(results[2].Suppressed).To(BeTrue())
			Expect(gate.Active()).To(BeTrue())

			Expect(presenter.Dismiss()).To(Succeed())
			Expect(gate.Active()).To(BeFalse())
		})
	})
})

var _ = Describe("Intervention gate", func() {
	It("should admit only the first of two back-to-back requests", func() {
		gate := usecase.NewInterventionGate()
		Expect(gate.RequestShow()).To(Equal(domain.ShowResultShown))
		Expect(gate.RequestShow()).To(Equal(domain.ShowResultSuppressed))

		gate.Release()
		Expect(gate.RequestShow()).To(Equal(domain.ShowResultShown))
	})
})

var _ = Describe("Controller with encrypted settings", func() {
	var (
		dataDir   string
		settings  *infra.EncryptedSettings
		frontmost *fixtures.ScriptedFrontmost
		presenter *fixtures.RecordingPresenter
		ctrl      *daemon.Controller
	)

	BeforeEach(func() {
		var err error
		dataDir, err = os.MkdirTemp("", "appblock-integration-*")
		Expect(err).NotTo(HaveOccurred())

		settings, err = infra.OpenSettings(dataDir)
		Expect(err).NotTo(HaveOccurred())

		frontmost = &fixtures.ScriptedFrontmost{}
		presenter = &fixtures.RecordingPresenter{}
		logger := zap.NewNop()

		journal := infra.NewFocusJournal(frontmost, time.Minute, logger)
		observer := usecase.NewActivityObserver(journal, 30*time.Second)
		gate := usecase.NewInterventionGate()
		newLoop := func() daemon.TickRunner {
			return usecase.NewMonitorLoop(domain.NewTargetSet("com.valvesoftware.steam"), observer, gate, presenter, 0, logger)
		}

		ctrl = daemon.NewController(
			daemon.WatcherConfig{PollInterval: 20 * time.Millisecond},
			settings,
			newLoop,
			presenter,
			fixtures.NopNotifier{},
			logger,
		).WithBackground(func(ctx context.Context) {
			journal.Run(ctx, 10*time.Millisecond)
		})
	})

	AfterEach(func() {
		_ = ctrl.Stop()
		_ = settings.Close()
		os.RemoveAll(dataDir)
	})

	Context("when monitoring was never enabled", func() {
		It("should not schedule ticks", func() {
			res, err := ctrl.Start(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(domain.StartResultDisabled))
			Expect(ctrl.IsRunning()).To(BeFalse())
		})
	})

	Context("when monitoring is enabled", func() {
		It("should block a switch to a target app", func() {
			res, err := ctrl.Enable(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(domain.StartResultStarted))

			frontmost.Focus("org.mozilla.firefox")
			Consistently(presenter.Presented, 100*time.Millisecond).Should(BeEmpty())

			frontmost.Focus("com.valvesoftware.steam")
			Eventually(presenter.Presented, time.Second).Should(ContainElement(domain.ApplicationID("com.valvesoftware.steam")))
			Expect(presenter.Showing()).To(BeTrue())

			Expect(ctrl.Stop()).To(Succeed())
			Expect(presenter.Showing()).To(BeFalse())
		})

		It("should persist the toggle across reopen", func() {
			_, err := ctrl.Enable(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.Disable()).To(Succeed())
			Expect(settings.SetMonitoringEnabled(true)).To(Succeed())
			Expect(settings.Close()).To(Succeed())

			reopened, err := infra.OpenSettings(dataDir)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			enabled, err := reopened.MonitoringEnabled()
			Expect(err).NotTo(HaveOccurred())
			Expect(enabled).To(BeTrue())
		})

		It("should not double-start on a replace signal", func() {
			_, err := ctrl.Enable(context.Background())
			Expect(err).NotTo(HaveOccurred())

			res, err := ctrl.HandleRestart(context.Background(), domain.RestartReplaced)
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(domain.StartResultAlreadyRunning))
		})
	})
})

var _ = Describe("Supervisor", func() {
	var (
		dataDir  string
		settings *infra.EncryptedSettings
		registry domain.DaemonRegistry
		spawns   int
		sup      *daemon.Supervisor
	)

	BeforeEach(func() {
		var err error
		dataDir, err = os.MkdirTemp("", "appblock-supervisor-*")
		Expect(err).NotTo(HaveOccurred())

		settings, err = infra.OpenSettings(dataDir)
		Expect(err).NotTo(HaveOccurred())

		pm := infra.NewProcessManager()
		registry = infra.NewFileRegistryWithPath(filepath.Join(dataDir, "registry.json"), pm)
		spawns = 0
		sup = daemon.NewSupervisor(settings, registry, pm, func() error {
			spawns++
			return nil
		}, zap.NewNop())
	})

	AfterEach(func() {
		_ = settings.Close()
		os.RemoveAll(dataDir)
	})

	It("should not spawn at boot while disabled", func() {
		res, err := sup.Boot()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(domain.StartResultDisabled))
		Expect(spawns).To(Equal(0))
	})

	It("should spawn on enable and at boot when nothing is alive", func() {
		res, err := sup.Enable()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(domain.StartResultStarted))

		res, err = sup.Boot()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(domain.StartResultStarted))
		Expect(spawns).To(Equal(2))
	})

	It("should treat a registered live process as the running daemon", func() {
		Expect(settings.SetMonitoringEnabled(true)).To(Succeed())
		Expect(registry.Register(domain.Daemon{PID: os.Getpid(), StartedAt: time.Now()})).To(Succeed())

		res, err := sup.Boot()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(domain.StartResultAlreadyRunning))
		Expect(spawns).To(Equal(0))
	})
})
