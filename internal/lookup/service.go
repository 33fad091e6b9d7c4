package lookup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/notifications"
	"github.com/sevlook/sevlook/internal/sevco"
	"github.com/sevlook/sevlook/internal/storage"
)

// ServiceConfig holds the collaborators of the lookup service.
type ServiceConfig struct {
	Client   *sevco.Client
	Store    storage.Store
	Notifier *notifications.Notifier
}

// Service orchestrates a lookup end to end: classification, the primary
// device search with concurrent source enumeration, aggregation, and the
// single-slot publish. It also runs the on-demand enrichment fan-out.
type Service struct {
	Config ServiceConfig
	sem    *semaphore.Weighted
}

// NewService initializes a new Service.
func NewService(config ServiceConfig, maxConcurrency int64) *Service {
	return &Service{
		Config: config,
		sem:    semaphore.NewWeighted(maxConcurrency),
	}
}

// Do runs one lookup for a raw selection string and publishes the result
// to the handoff slot. Lookup failures are captured into the result's
// error field rather than returned; the returned error covers only
// storage faults.
func (s *Service) Do(ctx context.Context, raw string) (models.LookupResult, error) {
	id, err := s.Config.Store.NextLookupID(ctx)
	if err != nil {
		return models.LookupResult{}, err
	}

	result := models.LookupResult{
		LookupID:  id,
		Timestamp: time.Now().UTC(),
	}

	query, err := Classify(raw)
	if err != nil {
		result.SearchTerm = strings.TrimSpace(raw)
		result.SearchType = sevco.SearchHostname
		result.Error = err.Error()
		return result, s.publish(ctx, result)
	}
	result.SearchTerm = query.Term
	result.SearchType = query.Kind

	creds, err := s.Config.Store.GetCredentials(ctx)
	if err != nil {
		return result, err
	}

	// Source enumeration has no data dependency on the device search,
	// so both run concurrently; aggregation waits for both. Incomplete
	// credentials skip straight to the search client's ConfigError
	// without issuing any network call.
	var allSources []string
	var devices []sevco.DeviceRecord
	if creds.Complete() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			allSources = s.Config.Client.ListAllSources(ctx, creds)
		}()
		devices, err = s.Config.Client.SearchDevices(ctx, creds, query)
		wg.Wait()
	} else {
		devices, err = s.Config.Client.SearchDevices(ctx, creds, query)
	}

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"term": query.Term,
			"kind": query.Kind,
		}).Error("Lookup failed")
		if err == sevco.ErrNoResults {
			result.Error = fmt.Sprintf("no devices found for %s: %q", query.Kind, query.Term)
		} else {
			result.Error = err.Error()
		}
		return result, s.publish(ctx, result)
	}

	result.Devices = Aggregate(devices, allSources)

	logrus.WithFields(logrus.Fields{
		"term":         query.Term,
		"kind":         query.Kind,
		"device_count": len(result.Devices),
	}).Info("Lookup completed")

	if err := s.publish(ctx, result); err != nil {
		return result, err
	}

	s.notifyExposures(result)
	return result, nil
}

// publish writes the slot; a write that lost the race to a newer lookup
// is logged and dropped without failing the caller.
func (s *Service) publish(ctx context.Context, result models.LookupResult) error {
	err := s.Config.Store.PublishLookup(ctx, result)
	if err == storage.ErrStaleWrite {
		logrus.WithField("lookup_id", result.LookupID).Warn("Discarded lookup result superseded by a newer one")
		return nil
	}
	return err
}

// notifyExposures sends an optional notification when a lookup surfaces
// devices with exposure vulnerabilities. Failures never affect the
// lookup; the notifier logs them itself.
func (s *Service) notifyExposures(result models.LookupResult) {
	if s.Config.Notifier == nil {
		return
	}
	total := 0
	for _, device := range result.Devices {
		count, _ := VulnerabilitySummary(device)
		total += count
	}
	if total == 0 {
		return
	}
	message := fmt.Sprintf("Lookup for **%s** matched %d device(s) carrying %d exposure vulnerabilities.",
		result.SearchTerm, len(result.Devices), total)
	s.Config.Notifier.Send("Exposures found", message)
}

// EnrichedVuln is a vulnerability detail with its display severity tier.
type EnrichedVuln struct {
	sevco.Vulnerability
	Severity      string `json:"severity"`
	SeverityColor string `json:"severity_color"`
}

// DeviceEnrichment carries the joined results of the per-user and
// per-vulnerability fan-out. Failed items are omitted, not reported.
type DeviceEnrichment struct {
	Users           []sevco.User   `json:"users"`
	Vulnerabilities []EnrichedVuln `json:"vulnerabilities"`
}

// EnrichDevice fans out the secondary lookups for a device's usernames
// and vulnerability references, bounded by the service semaphore, and
// joins them before returning. Cancelling ctx abandons in-flight items.
func (s *Service) EnrichDevice(ctx context.Context, usernames []string, vulnIDs []string) DeviceEnrichment {
	creds, err := s.Config.Store.GetCredentials(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to read credentials for enrichment")
		return DeviceEnrichment{Users: []sevco.User{}, Vulnerabilities: []EnrichedVuln{}}
	}

	users := make([]*sevco.User, len(usernames))
	vulns := make([]*sevco.Vulnerability, len(vulnIDs))

	var wg sync.WaitGroup
	for i, username := range usernames {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			defer s.sem.Release(1)
			users[i] = s.Config.Client.LookupUser(ctx, creds, username)
		}(i, username)
	}
	for i, id := range vulnIDs {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer s.sem.Release(1)
			vulns[i] = s.Config.Client.LookupVulnerability(ctx, creds, id)
		}(i, id)
	}
	wg.Wait()

	enrichment := DeviceEnrichment{
		Users:           make([]sevco.User, 0, len(usernames)),
		Vulnerabilities: make([]EnrichedVuln, 0, len(vulnIDs)),
	}
	for _, user := range users {
		if user != nil {
			enrichment.Users = append(enrichment.Users, *user)
		}
	}
	for _, vuln := range vulns {
		if vuln == nil {
			continue
		}
		enrichment.Vulnerabilities = append(enrichment.Vulnerabilities, EnrichedVuln{
			Vulnerability: *vuln,
			Severity:      SeverityLabel(vuln.EffectiveSeverity),
			SeverityColor: SeverityColor(vuln.EffectiveSeverity),
		})
	}
	return enrichment
}
