package functions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
)

const (
	draftsDir   = "drafts"
	verifiedDir = "verified"
)

// SortField selects the key used to order List results.
type SortField string

const (
	SortByQuality SortField = "quality_score"
	SortByUsage   SortField = "usage_count"
	SortByCreated SortField = "created_at"
)

// SortOrder is the direction of a List sort.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ListFilter narrows and orders the records returned by List.
// A zero TrustLevel matches both tiers; a zero Limit returns everything.
type ListFilter struct {
	TrustLevel TrustLevel
	UsesSkill  string
	SortBy     SortField
	SortOrder  SortOrder
	Limit      int
}

// StoreStats reports per-tier record counts and on-disk sizes.
type StoreStats struct {
	DraftCount    int   `json:"draft_count"`
	VerifiedCount int   `json:"verified_count"`
	DraftBytes    int64 `json:"draft_bytes"`
	VerifiedBytes int64 `json:"verified_bytes"`
}

// Store owns the on-disk representation of function records: one JSON
// document per record under <base>/drafts or <base>/verified. All writes are
// atomic at single-record granularity (write-temp-then-rename). A mutex
// covers in-process concurrency; an advisory lock on the drafts directory
// serializes the create-after-dedup window and full maintenance passes across
// processes.
type Store struct {
	baseDir     string
	mu          sync.Mutex
	draftLockMu sync.Mutex
	validate    *validator.Validate
	scorer      *QualityScorer
	newID       func() string
	lockTimeout time.Duration
}

// NewStore creates a store rooted at baseDir, creating the tier directories
// if needed.
func NewStore(baseDir string) (*Store, error) {
	for _, tier := range []string{draftsDir, verifiedDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, tier), 0755); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "failed to create store directory"),
				errors.Fields{"dir": filepath.Join(baseDir, tier)},
			)
		}
	}

	return &Store{
		baseDir:     baseDir,
		validate:    validator.New(),
		scorer:      NewQualityScorer(),
		newID:       uuid.NewString,
		lockTimeout: 5 * time.Second,
	}, nil
}

// WithScorer sets the quality scorer used when records are created or promoted.
func (s *Store) WithScorer(scorer *QualityScorer) *Store {
	s.scorer = scorer
	return s
}

// WithIDGenerator sets the unique-id generator.
func (s *Store) WithIDGenerator(newID func() string) *Store {
	s.newID = newID
	return s
}

// WithLockTimeout sets how long WithDraftLock waits before failing.
func (s *Store) WithLockTimeout(timeout time.Duration) *Store {
	s.lockTimeout = timeout
	return s
}

// Scorer returns the store's quality scorer.
func (s *Store) Scorer() *QualityScorer {
	return s.scorer
}

// Create validates and persists a new record, assigning an id, timestamps and
// the initial quality score. Returns the assigned id.
func (s *Store) Create(record *FunctionMemory) (string, error) {
	if record == nil {
		return "", errors.New(errors.InvalidInput, "record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = s.newID()
	}
	if record.Metadata.TrustLevel == "" {
		record.Metadata.TrustLevel = TrustDraft
	}
	now := time.Now()
	if record.Metadata.CreatedAt.IsZero() {
		record.Metadata.CreatedAt = now
	}
	record.Metadata.UpdatedAt = now
	if record.Metadata.PatternType == "" {
		record.Metadata.PatternType = ClassifyPattern(record.Steps)
	}
	record.Metadata.QualityScore = s.scorer.Score(record.Metadata)

	if err := s.validateRecord(record); err != nil {
		return "", err
	}

	if _, _, err := s.findRecordPath(record.ID); err == nil {
		return "", errors.WithFields(
			errors.New(errors.InvalidInput, "record id already exists"),
			errors.Fields{"id": record.ID},
		)
	}

	path := s.recordPath(record.Metadata.TrustLevel, record.ID)
	if err := writeRecordFile(path, record); err != nil {
		return "", err
	}

	return record.ID, nil
}

// Save rewrites an existing record in place. The record's trust tier must
// match the stored tier; Promote is the only legal tier transition.
func (s *Store) Save(record *FunctionMemory) error {
	if record == nil || record.ID == "" {
		return errors.New(errors.InvalidInput, "record must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, tier, err := s.findRecordPath(record.ID)
	if err != nil {
		return err
	}
	if record.Metadata.TrustLevel != tier {
		return errors.WithFields(
			errors.New(errors.ValidationFailed, "trust level cannot change through Save"),
			errors.Fields{"id": record.ID, "stored": tier, "given": record.Metadata.TrustLevel},
		)
	}

	record.Metadata.UpdatedAt = time.Now()
	if err := s.validateRecord(record); err != nil {
		return err
	}

	return writeRecordFile(s.recordPath(tier, record.ID), record)
}

// Load reads a single record by id from either tier.
func (s *Store) Load(id string) (*FunctionMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(id)
}

func (s *Store) loadLocked(id string) (*FunctionMemory, error) {
	path, _, err := s.findRecordPath(id)
	if err != nil {
		return nil, err
	}
	return readRecordFile(path)
}

// List returns read-only snapshots of records matching the filter.
func (s *Store) List(filter ListFilter) ([]*FunctionMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tiers := []TrustLevel{TrustVerified, TrustDraft}
	if filter.TrustLevel != "" {
		if !filter.TrustLevel.Valid() {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "unknown trust level"),
				errors.Fields{"trust_level": filter.TrustLevel},
			)
		}
		tiers = []TrustLevel{filter.TrustLevel}
	}

	var records []*FunctionMemory
	for _, tier := range tiers {
		tierRecords, err := s.readTier(tier)
		if err != nil {
			return nil, err
		}
		records = append(records, tierRecords...)
	}

	if filter.UsesSkill != "" {
		filtered := records[:0]
		for _, record := range records {
			if record.SkillSet()[filter.UsesSkill] {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	sortRecords(records, filter.SortBy, filter.SortOrder)

	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}

	return records, nil
}

// Delete removes a record from whichever tier holds it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) error {
	path, _, err := s.findRecordPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to delete record"),
			errors.Fields{"id": id},
		)
	}
	return nil
}

// Promote moves a draft to the verified tier and recomputes its quality with
// the trust bonus applied. Promoting an already-verified record is a no-op;
// the reverse transition does not exist. The move happens under the drafts
// lock so it can never interleave with a maintenance pass consolidating the
// same record.
func (s *Store) Promote(id string) error {
	return s.WithDraftLock(func() error {
		return s.promote(id)
	})
}

func (s *Store) promote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, tier, err := s.findRecordPath(id)
	if err != nil {
		return err
	}
	if tier == TrustVerified {
		return nil
	}

	record, err := readRecordFile(path)
	if err != nil {
		return err
	}

	record.Metadata.TrustLevel = TrustVerified
	record.Metadata.UpdatedAt = time.Now()
	record.Metadata.QualityScore = s.scorer.Score(record.Metadata)

	if err := writeRecordFile(s.recordPath(TrustVerified, id), record); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to remove draft after promotion"),
			errors.Fields{"id": id},
		)
	}

	return nil
}

// Stats reports per-tier record counts and byte sizes.
func (s *Store) Stats() (StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats StoreStats
	for _, tier := range []TrustLevel{TrustDraft, TrustVerified} {
		entries, err := os.ReadDir(s.tierDir(tier))
		if err != nil {
			return StoreStats{}, errors.Wrap(err, errors.StorageFailed, "failed to read tier directory")
		}
		for _, entry := range entries {
			if !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if tier == TrustDraft {
				stats.DraftCount++
				stats.DraftBytes += info.Size()
			} else {
				stats.VerifiedCount++
				stats.VerifiedBytes += info.Size()
			}
		}
	}
	return stats, nil
}

// RecordSize returns the on-disk size of a record in bytes.
func (s *Store) RecordSize(id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, _, err := s.findRecordPath(id)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.StorageFailed, "failed to stat record")
	}
	return info.Size(), nil
}

// WithDraftLock runs fn while holding the advisory lock on the drafts
// directory. The learning gate wraps its dedup-then-create window in this so
// concurrent learners are linearized; the maintainer holds it for a full
// pass, and Promote and usage recording take it so no write can land inside
// that pass. Acquisition past the configured timeout fails with LockTimeout.
func (s *Store) WithDraftLock(fn func() error) error {
	s.draftLockMu.Lock()
	defer s.draftLockMu.Unlock()

	lockFile, err := acquireDirLock(filepath.Join(s.baseDir, draftsDir, ".lock"), s.lockTimeout)
	if err != nil {
		return err
	}
	defer releaseDirLock(lockFile)

	return fn()
}

func (s *Store) validateRecord(record *FunctionMemory) error {
	if err := s.validate.Struct(record); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.ValidationFailed, "malformed function record"),
			errors.Fields{"id": record.ID},
		)
	}
	return nil
}

func (s *Store) tierDir(tier TrustLevel) string {
	if tier == TrustVerified {
		return filepath.Join(s.baseDir, verifiedDir)
	}
	return filepath.Join(s.baseDir, draftsDir)
}

func (s *Store) recordPath(tier TrustLevel, id string) string {
	return filepath.Join(s.tierDir(tier), id+".json")
}

// findRecordPath locates a record by id. The verified tier wins if a crash
// during promotion ever leaves a stale draft copy behind.
func (s *Store) findRecordPath(id string) (string, TrustLevel, error) {
	for _, tier := range []TrustLevel{TrustVerified, TrustDraft} {
		path := s.recordPath(tier, id)
		if _, err := os.Stat(path); err == nil {
			return path, tier, nil
		}
	}
	return "", "", errors.WithFields(
		errors.New(errors.ResourceNotFound, "function record not found"),
		errors.Fields{"id": id},
	)
}

func (s *Store) readTier(tier TrustLevel) ([]*FunctionMemory, error) {
	entries, err := os.ReadDir(s.tierDir(tier))
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to read tier directory")
	}

	var records []*FunctionMemory
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := readRecordFile(filepath.Join(s.tierDir(tier), entry.Name()))
		if err != nil {
			// Skip unreadable records rather than failing the whole listing.
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func sortRecords(records []*FunctionMemory, by SortField, order SortOrder) {
	if by == "" {
		by = SortByQuality
	}
	if order == "" {
		order = SortDescending
	}

	less := func(a, b *FunctionMemory) bool {
		switch by {
		case SortByUsage:
			return a.Metadata.UsageCount < b.Metadata.UsageCount
		case SortByCreated:
			return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
		default:
			return a.Metadata.QualityScore < b.Metadata.QualityScore
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if order == SortAscending {
			return less(records[i], records[j])
		}
		return less(records[j], records[i])
	})
}

func writeRecordFile(path string, record *FunctionMemory) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to marshal record")
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to write record")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.StorageFailed, "failed to rename record into place")
	}
	return nil
}

func readRecordFile(path string) (*FunctionMemory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ResourceNotFound, "function record not found")
		}
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to read record")
	}

	var record FunctionMemory
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ValidationFailed, "corrupt function record"),
			errors.Fields{"path": path},
		)
	}
	return &record, nil
}
