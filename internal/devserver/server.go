// Package devserver is a local stand-in for the hosted content API. It serves
// content documents from memory, evaluates the search parameter with the same
// evaluator the clients use, and resolves aliases to content-hash tags.
package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/fivetwenty-io/sitecontent/internal/query"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/gin-gonic/gin"
)

const tagLength = 12

// Static errors for err113 compliance.
var (
	ErrEmptySiteID = errors.New("site id is required")
)

type site struct {
	raw          []byte
	tree         any
	tag          string
	aliases      map[string]bool
	translations map[string]*site
}

// Server holds the documents of one or more sites.
type Server struct {
	mu      sync.RWMutex
	sites   map[string]*site
	logger  content.Logger
	noAuth  bool
	handler *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs every request.
func WithLogger(logger content.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithoutAuth accepts requests without a credential.
func WithoutAuth() Option {
	return func(s *Server) {
		s.noAuth = true
	}
}

// New creates an empty server.
func New(opts ...Option) *Server {
	server := &Server{
		sites:  make(map[string]*site),
		logger: content.NopLogger{},
	}

	for _, opt := range opts {
		opt(server)
	}

	server.handler = server.routes()

	return server
}

// AddSite serves document for siteID under the "latest" alias, any extra
// aliases, and its content tag. It returns the tag.
func (s *Server) AddSite(siteID string, document []byte, aliases ...string) (string, error) {
	if siteID == "" {
		return "", ErrEmptySiteID
	}

	entry, err := newSite(document)
	if err != nil {
		return "", err
	}

	entry.aliases[constants.DefaultEnvironment] = true
	for _, alias := range aliases {
		entry.aliases[alias] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sites[siteID]; ok {
		entry.translations = existing.translations
	}

	s.sites[siteID] = entry

	return entry.tag, nil
}

// AddTranslation serves document for siteID when lang matches.
func (s *Server) AddTranslation(siteID, lang string, document []byte) error {
	translated, err := newSite(document)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sites[siteID]
	if !ok {
		return fmt.Errorf("adding %s translation: %w", lang, &content.NotFoundError{Kind: "site", Key: siteID})
	}

	entry.translations[lang] = translated

	return nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func newSite(document []byte) (*site, error) {
	var tree any

	err := json.Unmarshal(document, &tree)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	sum := sha256.Sum256(document)

	return &site{
		raw:          document,
		tree:         tree,
		tag:          hex.EncodeToString(sum[:])[:tagLength],
		aliases:      make(map[string]bool),
		translations: make(map[string]*site),
	}, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/:site/:env", s.authorize(), s.getContent)
	router.POST("/:site/:env/resolve", s.authorize(), s.resolve)

	return router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}

		if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
			fields["query"] = rawQuery
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
			s.logger.Error("HTTP request with errors", fields)

			return
		}

		s.logger.Info("HTTP request", fields)
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.noAuth {
			c.Next()

			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			abort(c, http.StatusUnauthorized, "missing credential")

			return
		}

		credential, err := content.ParseCredential(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid credential")

			return
		}

		if credential.SiteID != c.Param("site") {
			abort(c, http.StatusForbidden, "credential does not grant access to this site")

			return
		}

		c.Next()
	}
}

func (s *Server) getContent(c *gin.Context) {
	entry, ok := s.lookup(c)
	if !ok {
		return
	}

	if lang := c.Query(constants.QueryParamLang); lang != "" {
		s.mu.RLock()
		if translated, found := entry.translations[lang]; found {
			entry = translated
		}
		s.mu.RUnlock()
	}

	search := c.Query(constants.QueryParamSearch)
	if search == "" {
		c.Data(http.StatusOK, "application/json", entry.raw)

		return
	}

	result, err := query.Evaluate(entry.tree, search)
	if err != nil {
		_ = c.Error(err)
		abort(c, http.StatusBadRequest, err.Error())

		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "encoding result")

		return
	}

	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) resolve(c *gin.Context) {
	entry, ok := s.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": entry.tag})
}

// lookup finds the site and checks the environment is one of its aliases or
// its tag.
func (s *Server) lookup(c *gin.Context) (*site, bool) {
	s.mu.RLock()
	entry, ok := s.sites[c.Param("site")]
	s.mu.RUnlock()

	if !ok {
		abort(c, http.StatusNotFound, "site not found")

		return nil, false
	}

	env := c.Param("env")
	if env != entry.tag && !entry.aliases[env] {
		abort(c, http.StatusNotFound, "environment not found")

		return nil, false
	}

	return entry, true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
