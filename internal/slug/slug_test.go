package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"testing/quick"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Slugify
// ---------------------------------------------------------------------------

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"substitution table", "Müller GmbH", 0, "mueller-gmbh"},
		{"decomposed umlaut", "Mu\u0308ller GmbH", 0, "mueller-gmbh"},
		{"decomposed ring", "A\u030alborg", 0, "aalborg"},
		{"uppercase umlaut", "ÜBER Form", 0, "ueber-form"},
		{"eszett", "Straße", 0, "strasse"},
		{"nordic letters", "Ærø Ålborg", 0, "aeroe-aalborg"},
		{"tilde n", "Ñandú", 0, "nandu"},
		{"diacritics stripped", "Crème Brûlée!", 0, "creme-brulee"},
		{"whitespace collapsed", "  Hello \t  World  ", 0, "hello-world"},
		{"hyphens collapsed", "--Already--Hyphenated--", 0, "already-hyphenated"},
		{"mixed separators", "a - b _ c", 0, "a-b-c"},
		{"digits kept", "Webinar 2025 Q3", 0, "webinar-2025-q3"},
		{"punctuation only", "!!!", 0, ""},
		{"empty", "", 0, ""},
		{"whitespace only", "   ", 0, ""},
		{"non-breaking space", "Spring\u00a0Launch", 0, "spring-launch"},
		{"truncated without trailing hyphen", "ab cd", 3, "ab"},
		{"truncated exact", "abcdef", 4, "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input, tt.max); got != tt.want {
				t.Errorf("Slugify(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestSlugifyCanonicalEquivalence(t *testing.T) {
	for _, name := range []string{"Müller GmbH", "Ærø Ålborg", "Ñandú", "Café Müller Sign-up"} {
		composed := norm.NFC.String(name)
		decomposed := norm.NFD.String(name)
		if a, b := Slugify(composed, 0), Slugify(decomposed, 0); a != b {
			t.Errorf("%q: composed slug %q != decomposed slug %q", name, a, b)
		}
	}
}

var slugShape = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestSlugifyInvariants(t *testing.T) {
	check := func(input string, n uint8) bool {
		max := int(n%120) + 1
		s := Slugify(input, max)
		if !slugShape.MatchString(s) {
			return false
		}
		if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
			return false
		}
		return len(s) <= max
	}
	if err := quick.Check(check, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}

func TestSlugifyDefaultMaxLength(t *testing.T) {
	long := strings.Repeat("word ", 60)
	got := Slugify(long, 0)
	if len(got) > DefaultMaxLength {
		t.Errorf("len = %d, want <= %d", len(got), DefaultMaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
}

// ---------------------------------------------------------------------------
// EnsureUnique
// ---------------------------------------------------------------------------

func TestEnsureUnique(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		max      int
		want     string
	}{
		{"free base unchanged", "bar", nil, 0, "bar"},
		{"first suffix", "foo", []string{"foo"}, 0, "foo-1"},
		{"skips taken suffixes", "foo", []string{"foo", "foo-1"}, 0, "foo-2"},
		{"gap is reused", "foo", []string{"foo", "foo-2"}, 0, "foo-1"},
		{"base truncated to fit", "abcdef", []string{"abcdef"}, 6, "abcd-1"},
		{"truncation drops dangling hyphen", "abcd-efg", []string{"abcd-efg"}, 7, "abcd-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureUnique(tt.base, tt.existing, tt.max)
			if err != nil {
				t.Fatalf("EnsureUnique: %v", err)
			}
			if got != tt.want {
				t.Errorf("EnsureUnique(%q, %v, %d) = %q, want %q", tt.base, tt.existing, tt.max, got, tt.want)
			}
			max := tt.max
			if max <= 0 {
				max = DefaultMaxLength
			}
			if len(got) > max {
				t.Errorf("len(%q) = %d exceeds %d", got, len(got), max)
			}
		})
	}
}

func TestEnsureUniqueNoRoomForSuffix(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		max      int
	}{
		{"shorter than suffix", "abc", []string{"abc"}, 1},
		{"equal to suffix", "abc", []string{"abc"}, 2},
		{"suffix digits outgrow limit", "ab", []string{"ab", "a-1", "a-2", "a-3", "a-4", "a-5", "a-6", "a-7", "a-8", "a-9"}, 3},
		{"empty base taken", "", []string{""}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureUnique(tt.base, tt.existing, tt.max)
			if !errors.Is(err, ErrNoRoomForSuffix) {
				t.Errorf("EnsureUnique(%q, %v, %d) = %q, %v; want ErrNoRoomForSuffix", tt.base, tt.existing, tt.max, got, err)
			}
		})
	}

	got, err := EnsureUnique("abc", []string{"abc"}, 3)
	if err != nil || got != "a-1" {
		t.Errorf("EnsureUnique(abc, {abc}, 3) = %q, %v; want a-1", got, err)
	}
}

func TestEnsureUniqueDoesNotMutateInput(t *testing.T) {
	existing := []string{"foo", "foo-1"}
	EnsureUnique("foo", existing, 0)
	if len(existing) != 2 || existing[0] != "foo" || existing[1] != "foo-1" {
		t.Errorf("existing was modified: %v", existing)
	}

	var empty []string
	if got, _ := EnsureUnique("bar", empty, 0); got != "bar" {
		t.Errorf("got %q, want bar", got)
	}
	if len(empty) != 0 {
		t.Errorf("empty set grew to %v", empty)
	}
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

func TestCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(NewMemoryMappings(), nil)

	for _, name := range []string{"Müller GmbH", "Spring Event Signup", "Crème Brûlée"} {
		s := c.Generate(ctx, name)
		if got := c.DeSlug(ctx, s); got != name {
			t.Errorf("DeSlug(Generate(%q)) = %q, want original", name, got)
		}
	}
}

func TestCodecDeSlugFallback(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(nil, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"spring-event-signup", "Spring Event Signup"},
		{"newsletter", "Newsletter"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := c.DeSlug(ctx, tt.in); got != tt.want {
			t.Errorf("DeSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCodecFirstMappingWins(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(nil, nil)

	c.Generate(ctx, "Contact Us")
	c.Generate(ctx, "contact  us")
	if got := c.DeSlug(ctx, "contact-us"); got != "Contact Us" {
		t.Errorf("DeSlug = %q, want %q", got, "Contact Us")
	}
}

func TestCodecReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMappings()
	c := NewCodec(m, nil)

	c.Generate(ctx, "Müller GmbH")
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := c.DeSlug(ctx, "mueller-gmbh"); got != "Mueller Gmbh" {
		t.Errorf("DeSlug after reset = %q, want best-effort %q", got, "Mueller Gmbh")
	}
}

func TestCodecEmptyInputRecordsNothing(t *testing.T) {
	m := NewMemoryMappings()
	c := NewCodec(m, nil)
	if got := c.Generate(context.Background(), "  "); got != "" {
		t.Errorf("Generate = %q, want empty", got)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestCodecConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c := NewCodec(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Form %d", i%8)
			s := c.Generate(ctx, name)
			if got := c.DeSlug(ctx, s); got != name {
				t.Errorf("DeSlug(%q) = %q, want %q", s, got, name)
			}
		}(i)
	}
	wg.Wait()
}

// ---------------------------------------------------------------------------
// RedisMappings
// ---------------------------------------------------------------------------

func TestRedisMappings(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisMappings(client, "test:slugs")
	c := NewCodec(store, nil)

	s := c.Generate(ctx, "Müller GmbH")
	c.Generate(ctx, "MÜLLER GMBH")

	if got := c.DeSlug(ctx, s); got != "Müller GmbH" {
		t.Errorf("DeSlug = %q, want %q", got, "Müller GmbH")
	}
	if v := mr.HGet("test:slugs", "mueller-gmbh"); v != "Müller GmbH" {
		t.Errorf("hash value = %q", v)
	}

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, err := store.Lookup(ctx, s); err != nil || ok {
		t.Errorf("Lookup after reset = ok %v, err %v", ok, err)
	}
}

func TestRedisMappingsUnavailableFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	c := NewCodec(NewRedisMappings(client, ""), nil)
	ctx := context.Background()

	if got := c.Generate(ctx, "Open Day"); got != "open-day" {
		t.Errorf("Generate = %q, want open-day", got)
	}
	if got := c.DeSlug(ctx, "open-day"); got != "Open Day" {
		t.Errorf("DeSlug = %q, want Open Day", got)
	}
}
