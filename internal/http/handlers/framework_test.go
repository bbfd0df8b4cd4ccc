package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisclient "github.com/yungbote/neurobridge-frameworks/internal/clients/redis"
	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	"github.com/yungbote/neurobridge-frameworks/internal/data/repos/testutil"
	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
)

const handlerDoc = `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:dc="http://purl.org/dc/terms/"
         xmlns:asn="http://purl.org/ASN/schema/core/">
  <rdf:Description rdf:about="http://example.org/resources/P">
    <dc:description>Statistics and Probability</dc:description>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/resources/K">
    <asn:isChildOf rdf:resource="http://example.org/resources/P"/>
    <dc:description>Answer yes/no questions to collect information</dc:description>
  </rdf:Description>
</rdf:RDF>`

func newFrameworkRouter(t *testing.T, maxBytes int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	uc := frameworksmod.New(frameworksmod.UsecasesDeps{
		DB:           db,
		Log:          log,
		Profiles:     profiles.Default(log),
		Lock:         redisclient.NewLocalImportLock(),
		Frameworks:   repos.NewFrameworkRepo(db, log),
		Competencies: repos.NewCompetencyRepo(db, log),
		Related:      repos.NewRelatedCompetencyRepo(db, log),
		Runs:         repos.NewImportRunRepo(db, log),
	})
	h := NewFrameworkHandlerWithDeps(FrameworkHandlerDeps{Log: log, Frameworks: uc, MaxUploadBytes: maxBytes})

	r := gin.New()
	r.POST("/api/frameworks/import", h.Import)
	r.POST("/api/frameworks/preview", h.Preview)
	r.GET("/api/frameworks/:id", h.GetFramework)
	r.GET("/api/import-runs", h.ListImportRuns)
	r.GET("/api/import-profiles", h.ListProfiles)
	return r
}

func multipartRequest(t *testing.T, path string, fields map[string]string, doc string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if doc != "" {
		fw, err := w.CreateFormFile(importFileField, "framework.xml")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(doc)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestFrameworkHandler_ImportThenGet(t *testing.T) {
	r := newFrameworkRouter(t, 0)
	idn := "HANDLER-" + uuid.NewString()[:8]

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "/api/frameworks/import", map[string]string{
		"shortname":  "Stats",
		"idnumber":   idn,
		"taxonomies": "domain, outcome",
		"visible":    "false",
	}, handlerDoc))
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out frameworksmod.ImportOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode import output: %v", err)
	}
	if out.Created != 2 || out.FrameworkID == uuid.Nil {
		t.Fatalf("unexpected import output: %+v", out)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/frameworks/"+out.FrameworkID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var view struct {
		Framework struct {
			IDNumber string `json:"idnumber"`
			Visible  bool   `json:"visible"`
		} `json:"framework"`
		Competencies []json.RawMessage `json:"competencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Framework.IDNumber != idn || view.Framework.Visible || len(view.Competencies) != 2 {
		t.Fatalf("unexpected view: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/import-runs?idnumber="+idn, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("runs status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var runs struct {
		Runs []json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil || len(runs.Runs) != 1 {
		t.Fatalf("expected one run: %s (%v)", rec.Body.String(), err)
	}
}

func TestFrameworkHandler_ImportErrors(t *testing.T) {
	r := newFrameworkRouter(t, 0)

	cases := []struct {
		name   string
		fields map[string]string
		doc    string
		status int
		code   string
	}{
		{"missing file", map[string]string{"idnumber": "X"}, "", http.StatusBadRequest, "missing_import_file"},
		{"malformed", map[string]string{"idnumber": "X"}, "<RDF>", http.StatusBadRequest, "invalid_import_file"},
		{"missing idnumber", map[string]string{}, handlerDoc, http.StatusBadRequest, "invalid_argument"},
		{"unknown profile", map[string]string{"idnumber": "X", "profile": "moodle"}, handlerDoc, http.StatusBadRequest, "invalid_argument"},
		{"bad atomic", map[string]string{"idnumber": "X", "atomic": "maybe"}, handlerDoc, http.StatusBadRequest, "invalid_atomic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, multipartRequest(t, "/api/frameworks/import", tc.fields, tc.doc))
			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.status, rec.Body.String())
			}
			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if env.Error.Code != tc.code {
				t.Fatalf("code: got=%q want=%q", env.Error.Code, tc.code)
			}
		})
	}
}

func TestFrameworkHandler_ImportConflict(t *testing.T) {
	r := newFrameworkRouter(t, 0)
	idn := "CONFLICT-" + uuid.NewString()[:8]
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, multipartRequest(t, "/api/frameworks/import", map[string]string{"idnumber": idn}, handlerDoc))
		if rec.Code != want {
			t.Fatalf("import %d: got=%d want=%d body=%s", i, rec.Code, want, rec.Body.String())
		}
	}
}

func TestFrameworkHandler_RejectsOversizedUpload(t *testing.T) {
	r := newFrameworkRouter(t, 256)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "/api/frameworks/preview", nil, handlerDoc+string(bytes.Repeat([]byte(" "), 1024))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestFrameworkHandler_Preview(t *testing.T) {
	r := newFrameworkRouter(t, 0)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartRequest(t, "/api/frameworks/preview", map[string]string{"profile": "asn"}, handlerDoc))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out frameworksmod.PreviewOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Nodes != 2 || len(out.Roots) != 1 || out.Roots[0].Name != "Statistics and Probability" {
		t.Fatalf("unexpected preview: %s", rec.Body.String())
	}
}

func TestFrameworkHandler_GetFrameworkErrors(t *testing.T) {
	r := newFrameworkRouter(t, 0)
	for path, want := range map[string]int{
		"/api/frameworks/not-a-uuid":          http.StatusBadRequest,
		"/api/frameworks/" + uuid.NewString(): http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: got=%d want=%d", path, rec.Code, want)
		}
	}
}

func TestFrameworkHandler_ListProfiles(t *testing.T) {
	r := newFrameworkRouter(t, 0)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/import-profiles", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var out struct {
		Profiles []string `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || len(out.Profiles) != 3 {
		t.Fatalf("unexpected profiles: %s (%v)", rec.Body.String(), err)
	}
}
