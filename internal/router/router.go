package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"clinical-rx-core/internal/adapters/storage/memory"
	pg "clinical-rx-core/internal/adapters/storage/postgres"
	rds "clinical-rx-core/internal/adapters/storage/redis"
	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/domain/prescriptions"
	"clinical-rx-core/internal/domain/records"
	"clinical-rx-core/internal/middleware"
	"clinical-rx-core/internal/platform/codes"
	"clinical-rx-core/internal/platform/logger"
	"clinical-rx-core/internal/platform/metrics"
	"clinical-rx-core/internal/ports/auth"

	_ "clinical-rx-core/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Opcional: si viene, las sesiones de dispensación van a Redis.
	Redis goredis.Cmdable

	Logger  logger.Logger
	Metrics *metrics.Metrics

	Policy audit.Policy

	CodeLength      int
	Validity        time.Duration
	MaxCodeAttempts int
	SessionTTL      time.Duration

	SeedUsers []identity.RegisterUserInput

	// Reloj compartido por todos los servicios (tests).
	Now func() time.Time
}

type repos struct {
	identity      identity.Repository
	records       records.Repository
	prescriptions prescriptions.Repository
	dispense      dispense.Repository
	audit         audit.Repository
	sessions      dispense.SessionStore
}

func selectRepos(opts Options) repos {
	var rp repos
	if opts.DB != nil {
		rp = repos{
			identity:      pg.NewIdentityRepo(opts.DB),
			records:       pg.NewRecordsRepo(opts.DB),
			prescriptions: pg.NewPrescriptionsRepo(opts.DB),
			dispense:      pg.NewDispenseRepo(opts.DB),
			audit:         pg.NewAuditRepo(opts.DB),
		}
	} else {
		st := memory.NewStore()
		rp = repos{
			identity:      st.Identity(),
			records:       st.Records(),
			prescriptions: st.Prescriptions(),
			dispense:      st.Dispense(),
			audit:         st.Audit(),
		}
	}

	if opts.Redis != nil {
		rp.sessions = rds.NewSessionStore(opts.Redis, opts.SessionTTL)
	} else {
		rp.sessions = memory.NewSessionStore(opts.SessionTTL)
	}
	return rp
}

func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	rp := selectRepos(opts)

	// Services por módulo
	idSvc := identity.NewService(rp.identity, identity.WithNow(now))
	auditSvc := audit.NewService(rp.audit,
		audit.WithNow(now),
		audit.WithPolicy(opts.Policy),
		audit.WithLogger(log.With(map[string]any{"module": "audit"})),
		audit.WithObserver(m),
	)
	recordsSvc := records.NewService(rp.records, idSvc, auditSvc, records.WithNow(now))

	rxOpts := []prescriptions.Option{
		prescriptions.WithNow(now),
		prescriptions.WithValidity(opts.Validity),
		prescriptions.WithMaxCodeAttempts(opts.MaxCodeAttempts),
	}
	if opts.CodeLength > 0 {
		rxOpts = append(rxOpts, prescriptions.WithCodeGenerator(codes.Generator(opts.CodeLength)))
	}
	rxSvc := prescriptions.NewService(rp.prescriptions, idSvc, auditSvc, rxOpts...)

	dispenseSvc := dispense.NewService(rp.dispense, rp.sessions, rxSvc, auditSvc,
		dispense.WithNow(now),
		dispense.WithLogger(log.With(map[string]any{"module": "dispense"})),
		dispense.WithObserver(m),
	)

	for _, u := range opts.SeedUsers {
		if _, err := idSvc.Seed(context.Background(), u); err != nil {
			return nil, fmt.Errorf("seed user %q: %w", u.ID, err)
		}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log, m))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	identity.RegisterRoutes(r, idSvc, log)
	records.RegisterRoutes(r, recordsSvc, idSvc, log)
	prescriptions.RegisterRoutes(r, rxSvc, idSvc, log)
	dispense.RegisterRoutes(r, dispenseSvc, idSvc, log)
	audit.RegisterRoutes(r, auditSvc, idSvc, log)

	return r, nil
}
