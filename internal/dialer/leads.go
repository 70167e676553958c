package dialer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/callsight/backend/pkg/logger"
)

// ResolveLeads fetches lead pages until every requested ID has been seen or
// the collection is exhausted, whichever comes first. The lead table can dwarf
// the call table, so walking it in full is the worst case, not the normal one.
// IDs absent from the whole collection are simply missing from the result;
// callers treat them as "unknown status".
func (f *Fetcher) ResolveLeads(ctx context.Context, ids map[int]struct{}) (map[int]Lead, error) {
	resolved := make(map[int]Lead, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	outstanding := make(map[int]struct{}, len(ids))
	for id := range ids {
		outstanding[id] = struct{}{}
	}

	limiter := f.limiters[ResourceLeads]
	sortBy, sortDir := sortFor(ResourceLeads)
	page := 1
	attempts := 0

	for len(outstanding) > 0 {
		if err := limiter.Wait(ctx); err != nil {
			return resolved, err
		}

		p, err := f.client.FetchPage(ctx, PageRequest{
			Resource:    ResourceLeads,
			Page:        page,
			PageSize:    f.pageSize,
			SortBy:      sortBy,
			SortDir:     sortDir,
			IncludeMeta: true,
		})
		if errors.Is(err, ErrThrottled) {
			attempts++
			if f.policy.MaxAttempts > 0 && attempts >= f.policy.MaxAttempts {
				return resolved, fmt.Errorf("resolve leads page %d: throttled %d times", page, attempts)
			}
			logger.Warnf("[LeadResolver] page %d throttled, cooling down %v", page, f.policy.Cooldown)
			if err := f.sleep(ctx, f.policy.Cooldown); err != nil {
				return resolved, err
			}
			continue
		}
		if err != nil {
			logger.Warnf("[LeadResolver] aborted at page %d with %d of %d leads resolved: %v",
				page, len(resolved), len(ids), err)
			return resolved, nil
		}

		attempts = 0
		if len(p.Records) == 0 {
			break
		}

		for _, r := range p.Records {
			var lead Lead
			if err := json.Unmarshal(r, &lead); err != nil {
				logger.Warnf("[LeadResolver] dropping undecodable lead record: %v", err)
				continue
			}
			if _, wanted := outstanding[lead.ID]; wanted {
				resolved[lead.ID] = lead
				delete(outstanding, lead.ID)
			}
		}

		if p.HasMeta() {
			if page >= p.PageCount {
				break
			}
		} else if len(p.Records) < f.pageSize {
			break
		}
		page++
	}

	return resolved, nil
}
