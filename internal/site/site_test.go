package site

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefault_Projects(t *testing.T) {
	cfg := Default()

	if len(cfg.Projects) != 3 {
		t.Fatalf("len(Projects) = %d, want 3", len(cfg.Projects))
	}

	ids := map[string]bool{}
	for _, p := range cfg.Projects {
		if ids[p.ID] {
			t.Errorf("duplicate project id %q", p.ID)
		}
		ids[p.ID] = true

		if p.ComingSoon {
			if p.LaunchHref != "#" {
				t.Errorf("coming soon project %q should not link anywhere: %q", p.ID, p.LaunchHref)
			}
			continue
		}
		if !strings.HasPrefix(p.LaunchHref, "https://") {
			t.Errorf("project %q LaunchHref = %q, want https URL", p.ID, p.LaunchHref)
		}
	}
	if !cfg.Projects[2].ComingSoon {
		t.Error("shopify-sats-back should be marked coming soon")
	}
}

func TestDefault_NavAndFooterAreSitePaths(t *testing.T) {
	cfg := Default()

	hrefs := []string{cfg.Bio.FullBioHref, cfg.Footer.PrivacyHref, cfg.Footer.LegalHref, cfg.Footer.NodeStatusHref}
	for _, l := range cfg.Nav {
		hrefs = append(hrefs, l.Href)
	}
	for _, h := range hrefs {
		if !strings.HasPrefix(h, "/") {
			t.Errorf("href %q should be a site-relative path", h)
		}
	}
	if !strings.HasPrefix(cfg.DeployCTA.Href, "mailto:") {
		t.Errorf("DeployCTA.Href = %q", cfg.DeployCTA.Href)
	}
}

func TestDefault_IndependentCopies(t *testing.T) {
	a := Default()
	a.Nav[0].Label = "changed"

	if Default().Nav[0].Label != "Manifesto" {
		t.Error("Default の戻り値は呼び出しごとに独立しているべき")
	}
}

func TestDefault_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Default())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"nav", "deploy_cta", "bio", "swingstr", "projects", "nostr", "footer"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
}
