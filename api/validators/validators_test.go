package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
)

type linkPayload struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

type addonPayload struct {
	Title    string        `json:"title" validate:"required,max=100"`
	Category string        `json:"category" validate:"required,addoncategory"`
	Images   []string      `json:"images" validate:"required,min=1,dive,addonimage"`
	Links    []linkPayload `json:"downloadLinks" validate:"required,min=1,dive"`
	Avatar   *string       `json:"avatarUrl" validate:"omitempty,urlorempty"`
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var dest addonPayload
	body := `{"title":"Guns","category":"weapons","images":["https://x.io/a.png","data:image/png;base64,AAA"],"downloadLinks":[{"name":"Main","url":"https://dl.io/f"}],"avatarUrl":""}`
	if err := DecodeJSONBody(newBodyRequest(body), &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Title != "Guns" || len(dest.Images) != 2 {
		t.Fatalf("unexpected decode result %+v", dest)
	}
}

func TestDecodeJSONBodyReportsFirstFailingField(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"missing title": {
			body: `{"category":"weapons","images":["https://x.io/a.png"],"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "title is required",
		},
		"bad category": {
			body: `{"title":"t","category":"cars","images":["https://x.io/a.png"],"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "category must be one of:",
		},
		"empty images": {
			body: `{"title":"t","category":"maps","images":[],"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "images must contain at least 1 item(s)",
		},
		"bad image": {
			body: `{"title":"t","category":"maps","images":["ftp://x.io/a.png"],"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "images[0] must be an http(s) URL or data:image URI",
		},
		"bad link url": {
			body: `{"title":"t","category":"maps","images":["https://x.io/a.png"],"downloadLinks":[{"name":"a","url":"not a url"}]}`,
			want: "downloadLinks[0].url must be a valid URL",
		},
		"title too long": {
			body: `{"title":"` + strings.Repeat("a", 101) + `","category":"maps","images":["https://x.io/a.png"],"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "title must be at most 100 characters",
		},
		"bad avatar": {
			body: `{"title":"t","category":"maps","images":["https://x.io/a.png"],"downloadLinks":[{"name":"a","url":"https://x.io"}],"avatarUrl":"nope"}`,
			want: "avatarUrl must be a valid URL or empty",
		},
		"unknown field": {
			body: `{"title":"t","featured":true}`,
			want: "featured is not allowed",
		},
		"empty body": {
			body: ``,
			want: "request body is required",
		},
		"malformed": {
			body: `{"title":`,
			want: "request body is not valid JSON",
		},
		"wrong type": {
			body: `{"title":5}`,
			want: "title must be of type string",
		},
		"null list": {
			body: `{"title":"t","category":"maps","images":null,"downloadLinks":[{"name":"a","url":"https://x.io"}]}`,
			want: "images must not be null",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var dest addonPayload
			err := DecodeJSONBody(newBodyRequest(tc.body), &dest)
			if err == nil {
				t.Fatalf("expected error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.HasPrefix(typed.Message(), tc.want) {
				t.Fatalf("expected message starting %q, got %q", tc.want, typed.Message())
			}
		})
	}
}

type trimmedPayload struct {
	Title string  `json:"title" validate:"required,max=5"`
	Note  *string `json:"note" validate:"omitnil,min=1"`
}

func (p *trimmedPayload) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	if p.Note != nil {
		*p.Note = strings.TrimSpace(*p.Note)
	}
}

func TestDecodeJSONBodyNormalizesBeforeValidating(t *testing.T) {
	var dest trimmedPayload
	if err := DecodeJSONBody(newBodyRequest(`{"title":"  abcde  ","note":" n "}`), &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Title != "abcde" || *dest.Note != "n" {
		t.Fatalf("unexpected decode result %+v", dest)
	}

	cases := map[string]string{
		`{"title":"   "}`:           "title is required",
		`{"title":"a","note":"  "}`: "note must not be empty",
		`{"title":"a","note":null}`: "note must not be null",
	}
	for body, want := range cases {
		var dest trimmedPayload
		err := DecodeJSONBody(newBodyRequest(body), &dest)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Message() != want {
			t.Fatalf("body %s: expected %q, got %v", body, want, err)
		}
	}
}

func TestIsAddonImage(t *testing.T) {
	for raw, want := range map[string]bool{
		"https://cdn.io/a.png":       true,
		"http://cdn.io/a.png":        true,
		"data:image/jpeg;base64,AAA": true,
		"data:text/plain;base64,AAA": false,
		"https://":                   false,
		"/relative.png":              false,
	} {
		if got := IsAddonImage(raw); got != want {
			t.Fatalf("IsAddonImage(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&bad=x", nil)

	if v, err := ParseQueryInt(r, "page", 1, 1, 1000); err != nil || v != 3 {
		t.Fatalf("expected page=3, got %d err=%v", v, err)
	}
	if v, err := ParseQueryInt(r, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default 20, got %d err=%v", v, err)
	}
	if _, err := ParseQueryInt(r, "limit", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range validation error, got %v", err)
	}
	if _, err := ParseQueryInt(r, "bad", 1, 1, 10); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected non-numeric validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?featured=TRUE&other=1", nil)
	if !ParseQueryBool(r, "featured") {
		t.Fatal("expected featured=true")
	}
	if ParseQueryBool(r, "other") {
		t.Fatal("only the literal true is accepted")
	}
}

func TestParseBearerToken(t *testing.T) {
	if tok, err := ParseBearerToken("Bearer abc.def"); err != nil || tok != "abc.def" {
		t.Fatalf("unexpected result %q %v", tok, err)
	}
	for _, raw := range []string{"", "Bearer ", "Basic abc", "abc"} {
		if _, err := ParseBearerToken(raw); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
