package server

import (
	"net/http"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/handlers"
	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/logging"
	"github.com/billfold/billfold/internal/mail"
	"github.com/billfold/billfold/internal/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, c *cache.Cache, mailer mail.Mailer, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	users := services.NewUserService(db, log)
	customers := services.NewCustomerService(db, c, log)
	items := services.NewItemService(db, c, log)
	quotes := services.NewQuoteService(db, c, log)
	invoices := services.NewInvoiceService(db, c, log)
	settings := services.NewSettingsService(db, log)

	// RequireAuth drops sessions whose user no longer exists.
	auth.SetUserVerifier(users.Exists)

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ah := handlers.NewAuthHandler(users, log)
	mux.Handle("/auth/register", post(ah.Register))
	mux.Handle("/auth/login", post(ah.Login))
	mux.Handle("/auth/logout", post(ah.Logout))
	mux.Handle("/auth/me", protect(get(ah.Me)))

	ch := handlers.NewCustomerHandler(customers, log)
	mux.Handle("/customers", protect(collection(ch.List, ch.Create)))
	mux.Handle("/customers/get", protect(get(ch.Get)))
	mux.Handle("/customers/update", protect(post(ch.Update)))
	mux.Handle("/customers/delete", protect(post(ch.Delete)))

	ith := handlers.NewItemHandler(items, log)
	mux.Handle("/items", protect(collection(ith.List, ith.Create)))
	mux.Handle("/items/get", protect(get(ith.Get)))
	mux.Handle("/items/update", protect(post(ith.Update)))
	mux.Handle("/items/delete", protect(post(ith.Delete)))
	mux.Handle("/items/export", protect(get(ith.ExportCSV)))
	mux.Handle("/items/import", protect(post(ith.ImportCSV)))

	qh := handlers.NewQuoteHandler(quotes, invoices, settings, mailer, log)
	mux.Handle("/quotes", protect(collection(qh.List, qh.Create)))
	mux.Handle("/quotes/get", protect(get(qh.Get)))
	mux.Handle("/quotes/update", protect(post(qh.Update)))
	mux.Handle("/quotes/delete", protect(post(qh.Delete)))
	mux.Handle("/quotes/status", protect(post(qh.SetStatus)))
	mux.Handle("/quotes/convert", protect(post(qh.Convert)))
	mux.Handle("/quotes/pdf", protect(get(qh.PDF)))
	mux.Handle("/quotes/send", protect(post(qh.Send)))

	ivh := handlers.NewInvoiceHandler(invoices, settings, mailer, log)
	mux.Handle("/invoices", protect(collection(ivh.List, ivh.Create)))
	mux.Handle("/invoices/get", protect(get(ivh.Get)))
	mux.Handle("/invoices/update", protect(post(ivh.Update)))
	mux.Handle("/invoices/delete", protect(post(ivh.Delete)))
	mux.Handle("/invoices/status", protect(post(ivh.SetStatus)))
	mux.Handle("/invoices/history", protect(get(ivh.History)))
	mux.Handle("/invoices/pdf", protect(get(ivh.PDF)))
	mux.Handle("/invoices/send", protect(post(ivh.Send)))

	sh := handlers.NewSettingsHandler(settings, log)
	mux.Handle("/settings", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sh.Get(w, r)
		case http.MethodPost, http.MethodPut:
			sh.Update(w, r)
		default:
			w.Header().Set("Allow", "GET,POST,PUT")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})))

	rh := handlers.NewReportHandler(invoices, log)
	mux.Handle("/reports/invoices.xlsx", protect(get(rh.InvoicesXLSX)))

	return withRecover(logging.RequestLogger(log, mux))
}

// protect wires the session middleware plus the auth requirement.
func protect(next http.Handler) http.Handler {
	return auth.Middleware(auth.RequireAuth(next))
}

func get(h http.HandlerFunc) http.Handler {
	return method(http.MethodGet, h)
}

func post(h http.HandlerFunc) http.Handler {
	return method(http.MethodPost, h)
}

func method(m string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	})
}

// collection serves GET list and POST create on the same path.
func collection(list, create http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
