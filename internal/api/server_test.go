package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/models"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"@alice", "alice"},
		{"  @alice  ", "alice"},
		{"https://twitter.com/alice", "alice"},
		{"https://x.com/alice", "alice"},
		{"@", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeHandle(tt.input); got != tt.want {
			t.Errorf("normalizeHandle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseBulkHandles(t *testing.T) {
	t.Run("mixed separators and decoration", func(t *testing.T) {
		handles := parseBulkHandles("@alice, bob\n\t@carol;https://x.com/dave @alice")
		assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, handles)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, parseBulkHandles("  , \n "))
	})

	t.Run("oversized imports are silently capped", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < bulkImportLimit+50; i++ {
			fmt.Fprintf(&sb, "user%d\n", i)
		}

		handles := parseBulkHandles(sb.String())
		assert.Len(t, handles, bulkImportLimit)
		assert.Equal(t, "user0", handles[0], "the first pasted handles win")
	})
}

func TestValidateSettings(t *testing.T) {
	valid := models.DefaultSettings()
	assert.NoError(t, validateSettings(valid))

	zeroAge := valid
	zeroAge.MaxTokenAgeMinutes = 0
	assert.NoError(t, validateSettings(zeroAge), "a zero max token age is a legal setting")

	negativeAge := valid
	negativeAge.MaxTokenAgeMinutes = -1
	assert.True(t, apperr.IsValidation(validateSettings(negativeAge)))

	zeroQuorum := valid
	zeroQuorum.MinQuorumThreshold = 0
	assert.True(t, apperr.IsValidation(validateSettings(zeroQuorum)))

	zeroVersions := valid
	zeroVersions.MaxVersions = 0
	assert.True(t, apperr.IsValidation(validateSettings(zeroVersions)))
}

func TestWriteErrorStatusMapping(t *testing.T) {
	s := &Server{logger: zerolog.Nop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation maps to 400", apperr.Validation("username", "must not be empty"), http.StatusBadRequest},
		{"not found maps to 404", apperr.NotFound("account", "abc"), http.StatusNotFound},
		{"conflict maps to 409", apperr.Conflict("already running"), http.StatusConflict},
		{"unknown maps to 500", fmt.Errorf("database on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "detail")
		})
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/add", bytes.NewBufferString("{not json"))

	var target addAccountRequest
	err := decodeJSON(req, &target)
	assert.True(t, apperr.IsValidation(err))
}

func TestDecodeJSONAcceptsValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/add", bytes.NewBufferString(`{"username": "@alice"}`))

	var target addAccountRequest
	assert.NoError(t, decodeJSON(req, &target))
	assert.Equal(t, "@alice", target.Handle)
}
