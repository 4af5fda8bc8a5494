// Package registrytest provides an in-memory registry server for tests.
// It speaks the same v1 API as a real registry and records download stats.
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Package is a stored package document in the fake registry.
type Package struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description,omitempty"`
	Authors      []string     `json:"authors,omitempty"`
	License      string       `json:"license,omitempty"`
	Downloads    int64        `json:"downloads,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// Dependency is a stored dependency declaration.
type Dependency struct {
	Name               string   `json:"name"`
	VersionRequirement string   `json:"version_requirement"`
	Optional           bool     `json:"optional,omitempty"`
	Features           []string `json:"features,omitempty"`
}

// Version is a stored published version.
type Version struct {
	PackageName       string `json:"package_name"`
	Version           string `json:"version"`
	DownloadURL       string `json:"download_url"`
	Checksum          string `json:"checksum"`
	ChecksumAlgorithm string `json:"checksum_algorithm"`
	Signature         string `json:"signature,omitempty"`
	Size              int64  `json:"size,omitempty"`
}

// Server is a fake registry backed by in-memory maps.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	packages  map[string]Package
	versions  map[string][]Version
	downloads map[string]int

	// RequireToken, when set, makes every request need this bearer token.
	RequireToken string

	// FailuresPerPath counts down: while positive for a path, requests to it
	// return 500. Used to exercise retry behavior.
	FailuresPerPath map[string]int

	requests []string
}

// NewServer starts a fake registry. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		packages:        make(map[string]Package),
		versions:        make(map[string][]Version),
		downloads:       make(map[string]int),
		FailuresPerPath: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/api/v1/packages/search", s.handleSearch)
	r.Get("/api/v1/packages/{name}", s.handleGetPackage)
	r.Get("/api/v1/packages/{name}/versions", s.handleGetVersions)
	r.Get("/api/v1/packages/{name}/versions/{version}", s.handleGetVersion)
	r.Post("/api/v1/packages/publish", s.handlePublish)
	r.Post("/api/v1/stats/download", s.handleRecordDownload)

	s.Server = httptest.NewServer(r)
	return s
}

// AddPackage stores package metadata and registers its version.
func (s *Server) AddPackage(pkg Package, versions ...Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[pkg.Name] = pkg
	s.versions[pkg.Name] = append(s.versions[pkg.Name], versions...)
}

// Downloads returns the recorded download count for name@version.
func (s *Server) Downloads(name, version string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads[name+"@"+version]
}

// Requests returns the request lines seen so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestCount returns how many requests hit the given path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, line := range s.requests {
		if strings.HasSuffix(line, " "+path) {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		failures := s.FailuresPerPath[r.URL.Path]
		if failures > 0 {
			s.FailuresPerPath[r.URL.Path] = failures - 1
		}
		token := s.RequireToken
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if failures > 0 {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	pkg, ok := s.packages[name]
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":"package not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, pkg)
}

func (s *Server) handleGetVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	versions := append([]Version(nil), s.versions[name]...)
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"versions": versions})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[name] {
		if v.Version == version {
			writeJSON(w, v)
			return
		}
	}
	http.Error(w, `{"error":"version not found"}`, http.StatusNotFound)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	s.mu.Lock()
	var matches []Package
	for _, pkg := range s.packages {
		if strings.Contains(strings.ToLower(pkg.Name), query) ||
			strings.Contains(strings.ToLower(pkg.Description), query) {
			matches = append(matches, pkg)
		}
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, pkg := range matches {
		results = append(results, map[string]interface{}{
			"name":        pkg.Name,
			"version":     pkg.Version,
			"description": pkg.Description,
			"downloads":   pkg.Downloads,
		})
	}
	writeJSON(w, map[string]interface{}{
		"results": results,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, `{"error":"bad multipart form"}`, http.StatusBadRequest)
		return
	}

	var pkg Package
	if err := json.Unmarshal([]byte(r.FormValue("package_json")), &pkg); err != nil {
		http.Error(w, `{"error":"bad package_json"}`, http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("artifact")
	if err != nil {
		http.Error(w, `{"error":"missing artifact"}`, http.StatusBadRequest)
		return
	}
	_ = file.Close()

	s.mu.Lock()
	s.packages[pkg.Name] = pkg
	s.versions[pkg.Name] = append(s.versions[pkg.Name], Version{
		PackageName:       pkg.Name,
		Version:           pkg.Version,
		DownloadURL:       s.URL + "/artifacts/" + pkg.Name + "/" + pkg.Version,
		Checksum:          r.FormValue("checksum"),
		ChecksumAlgorithm: r.FormValue("checksum_algorithm"),
	})
	s.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"status": "published"})
}

func (s *Server) handleRecordDownload(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Package string `json:"package"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.downloads[payload.Package+"@"+payload.Version]++
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
