package page

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
	journalService "github.com/zhouzirui/petal-journal/backend/internal/service/journal"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

//go:embed static
var assetsFS embed.FS

var staticFS = func() fs.FS {
	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}()

const journalScript = "/static/js/journal.js"

// Sessions reads and writes the visitor's display name.
type Sessions interface {
	SetName(w http.ResponseWriter, r *http.Request, name string)
	Name(r *http.Request) (string, bool)
}

// Handler renders the landing and journal pages.
type Handler struct {
	sessions      Sessions
	journal       *journalService.Service
	conversations conversation.Store
	log           logrus.FieldLogger
}

// New creates the page handler.
func New(sessions Sessions, journal *journalService.Service, conversations conversation.Store, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		sessions:      sessions,
		journal:       journal,
		conversations: conversations,
		log:           logger.WithField("component", "page"),
	}
}

// RegisterRoutes mounts the HTML pages and their static assets.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Get("/", h.handleLanding)
	r.Post("/", h.handleSetName)
	r.Get("/journal", h.handleJournal)
	r.Post("/journal", h.handleAddEntry)
}

type landingView struct {
	PageTitle string
	Username  string
	Scripts   []string
}

type journalView struct {
	PageTitle     string
	Username      string
	Scripts       []string
	Entries       []journal.Entry
	Conversations []journal.Conversation
}

func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	name, _ := h.sessions.Name(r)
	h.render(w, "landing", landingView{PageTitle: "Journal", Username: name})
}

func (h *Handler) handleSetName(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("username")
	h.sessions.SetName(w, r, name)
	h.render(w, "landing", landingView{PageTitle: "Journal", Username: name})
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	name, ok := h.sessions.Name(r)
	if !ok && h.journal.Mode() == journalService.Personal {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	conversations, err := h.conversations.List(r.Context(), name)
	if err != nil {
		h.log.WithError(err).Error("failed to list conversations")
		http.Error(w, "failed to load conversations", http.StatusInternalServerError)
		return
	}

	h.render(w, "journal", journalView{
		PageTitle:     "Journal",
		Username:      name,
		Scripts:       []string{journalScript},
		Entries:       h.journal.List(r.Context(), name),
		Conversations: conversations,
	})
}

func (h *Handler) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	name, ok := h.sessions.Name(r)
	if !ok && h.journal.Mode() == journalService.Personal {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	h.journal.Add(r.Context(), name, r.PostFormValue("entry"))
	http.Redirect(w, r, "/journal", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
