package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"smithagency/internal/adapters/http/middleware"
	"smithagency/internal/adapters/lock"
	"smithagency/internal/adapters/payment"
	auditStore "smithagency/internal/adapters/storage/audit"
	bookingStore "smithagency/internal/adapters/storage/booking"
	clientStore "smithagency/internal/adapters/storage/client"
	outboxStore "smithagency/internal/adapters/storage/outbox"
	shareLinkStore "smithagency/internal/adapters/storage/sharelink"
	showStore "smithagency/internal/adapters/storage/show"
	staffStore "smithagency/internal/adapters/storage/staff"
	"smithagency/internal/application/orchestrators"
	"smithagency/internal/domain/pricing"
)

// Stores holds all storage dependencies.
type Stores struct {
	BookingStore   bookingStore.Store
	ShareLinkStore shareLinkStore.Store
	ClientStore    clientStore.Store
	ShowStore      showStore.Store
	StaffStore     staffStore.Store
	OutboxStore    outboxStore.Store
	AuditStore     auditStore.Store
}

// Options configures the HTTP server.
type Options struct {
	Stores      Stores
	Gateway     payment.Gateway
	Locker      lock.Locker
	SideEffects orchestrators.SideEffectDeps
	Outbox      *orchestrators.OutboxProcessor

	Rates            pricing.Rates
	Currency         string
	BaseURL          string
	InternalKey      string
	StaffEmailDomain string
	ChargeTimeout    time.Duration

	Authenticator *middleware.Authenticator
	CSRFKey       []byte
	SecureCookies bool
	CORSOrigins   []string
	RateLimiter   *middleware.RateLimiter
	SlowRequest   time.Duration
	GenerateID    func() string
	Now           func() time.Time
}

// Server serves the booking API.
type Server struct {
	opts     Options
	stores   Stores
	validate *validator.Validate
}

// NewServer creates a Server, filling unset clocks and ID generators.
// PRE: opts.Stores, opts.Gateway and opts.Authenticator are set
func NewServer(opts Options) *Server {
	if opts.GenerateID == nil {
		opts.GenerateID = generateID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewLocalLocker()
	}
	if opts.Outbox == nil {
		opts.Outbox = orchestrators.NewOutboxProcessor(opts.Stores.OutboxStore, nil)
	}
	if opts.ChargeTimeout <= 0 {
		opts.ChargeTimeout = 30 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = pricing.DefaultCurrency
	}
	opts.Rates = opts.Rates.WithDefaults()
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Server{
		opts:     opts,
		stores:   opts.Stores,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handler returns the routed mux wrapped in the middleware chain.
// Order, outermost first: SecurityHeaders -> CORS -> Timing -> RateLimit -> CSRF -> Auth -> Mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	chain := []func(http.Handler) http.Handler{
		middleware.Auth(s.opts.Authenticator),
	}
	if len(s.opts.CSRFKey) == 32 {
		chain = append(chain, middleware.CSRF(s.opts.CSRFKey, s.opts.SecureCookies, trustedOrigins(s.opts.CORSOrigins)))
	}
	if s.opts.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.opts.RateLimiter))
	}
	chain = append(chain,
		middleware.Timing(s.opts.SlowRequest),
		middleware.CORS(s.opts.CORSOrigins),
		middleware.SecurityHeaders,
	)
	return middleware.Chain(mux, chain...)
}

// trustedOrigins strips schemes, which gorilla/csrf compares against the Origin host.
func trustedOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
