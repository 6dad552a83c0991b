// Package domain computes and creates the ACL-scoped domain an
// application's entities are posted under (spec.md §4.7 "Domain
// Creation").
package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/atsbridge/pkg/log"
	"github.com/cuemby/atsbridge/pkg/timeline"
)

// ACLConfig holds the raw ACL configuration (spec.md §6 "ui.acls.enable /
// acls.enable", "admin.acls, ui.view.acls, modify.acls").
type ACLConfig struct {
	Enabled     bool
	PredefinedID string // "timeline.domain" override; takes precedence if set
	CurrentUser string
	Admin       []string
	View        []string
	Modify      []string
}

// Creator creates a domain via a remote client capable of PutDomain.
type Creator interface {
	PutDomain(ctx context.Context, d timeline.Domain) error
}

// Create returns the domain id entities should be posted under, or "" if
// none applies (spec.md §4.7: "If ACLs disabled OR a predefined domain id
// is configured, return that (or nothing)"). On a PutDomain failure it
// logs and returns "" so the caller posts without a domain id rather than
// failing startup (spec.md §7 "Domain setup failure: logged; service
// continues without a domain id").
func Create(ctx context.Context, client Creator, cfg ACLConfig, applicationID string) string {
	if cfg.PredefinedID != "" {
		return cfg.PredefinedID
	}
	if !cfg.Enabled {
		return ""
	}

	readers := union(cfg.CurrentUser, cfg.Admin, cfg.Modify, cfg.View)
	writers := union(cfg.CurrentUser, cfg.Admin, cfg.Modify)
	id := fmt.Sprintf("Spark_ATS_%s", applicationID)

	d := timeline.Domain{ID: id, Readers: strings.Join(readers, " "), Writers: strings.Join(writers, " ")}
	if err := client.PutDomain(ctx, d); err != nil {
		log.WithComponent("domain").Error().Err(err).Str("domain_id", id).
			Msg("failed to create domain; posting without a domain id")
		return ""
	}
	return id
}

// union de-duplicates and sorts the current user plus however many ACL
// lists are given, producing a deterministic space-joined result.
func union(currentUser string, lists ...[]string) []string {
	seen := map[string]bool{currentUser: true}
	out := []string{currentUser}
	for _, list := range lists {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
