package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/tessro/ocd/internal/daemon"
)

// maxSuggestDistance bounds how far a name may be from the input to be suggested.
const maxSuggestDistance = 3

// candidate is something addressable by id or by name.
type candidate struct {
	ID   string
	Name string
}

// resolve matches arg against ids, then names (case-insensitive), then
// unique id prefixes. On a miss the error names the closest candidates.
func resolve(kind, arg string, cands []candidate) (string, error) {
	arg = strings.TrimSpace(arg)
	for _, c := range cands {
		if c.ID == arg {
			return c.ID, nil
		}
	}

	var byName []string
	for _, c := range cands {
		if strings.EqualFold(c.Name, arg) {
			byName = append(byName, c.ID)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
	default:
		return "", fmt.Errorf("%s name %q is ambiguous; use one of: %s", kind, arg, strings.Join(byName, ", "))
	}

	var byPrefix []string
	for _, c := range cands {
		if arg != "" && strings.HasPrefix(c.ID, arg) {
			byPrefix = append(byPrefix, c.ID)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}

	err := fmt.Errorf("no %s named %q", kind, arg)
	if s := suggest(arg, cands); len(s) > 0 {
		err = fmt.Errorf("%w; did you mean %s?", err, strings.Join(s, " or "))
	}
	return "", err
}

// suggest returns up to three names closest to arg by edit distance.
func suggest(arg string, cands []candidate) []string {
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	needle := strings.ToLower(arg)
	for _, c := range cands {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(c.Name))
		if d <= maxSuggestDistance {
			hits = append(hits, scored{c.Name, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	var out []string
	for i := 0; i < len(hits) && i < 3; i++ {
		out = append(out, fmt.Sprintf("%q", hits[i].name))
	}
	return out
}

func profileCandidates(s *daemon.ProfilesStore) []candidate {
	out := make([]candidate, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		out = append(out, candidate{ID: p.ID, Name: p.Name})
	}
	return out
}

func chatCandidates(ix *daemon.ChatIndex) []candidate {
	out := make([]candidate, 0, len(ix.Chats))
	for _, c := range ix.Chats {
		out = append(out, candidate{ID: c.ID, Name: c.Title})
	}
	return out
}

// resolveProfileArg resolves a profile name or id.
func resolveProfileArg(ctx context.Context, b daemon.ProfileService, arg string) (string, error) {
	store, err := b.ListProfiles(ctx)
	if err != nil {
		return "", fmt.Errorf("list profiles: %w", err)
	}
	return resolve("profile", arg, profileCandidates(store))
}

// targetProfile returns the --profile selection, or the active profile.
func targetProfile(ctx context.Context, b daemon.ProfileService) (string, error) {
	if profileFlag != "" {
		return resolveProfileArg(ctx, b, profileFlag)
	}
	store, err := b.ListProfiles(ctx)
	if err != nil {
		return "", fmt.Errorf("list profiles: %w", err)
	}
	if store.ActiveProfileID == "" {
		return "", fmt.Errorf("no active profile")
	}
	return store.ActiveProfileID, nil
}

// resolveChatArg resolves a chat title or id within a profile.
func resolveChatArg(ctx context.Context, b daemon.ChatService, profileID, arg string) (string, error) {
	ix, err := b.ListChats(ctx, profileID)
	if err != nil {
		return "", fmt.Errorf("list chats: %w", err)
	}
	return resolve("chat", arg, chatCandidates(ix))
}
