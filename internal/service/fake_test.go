package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/errs"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// memRepo is an in-memory DocumentRepository. CommitVersion holds the lock for the whole
// commit, like the row lock taken by the Postgres implementation.
type memRepo struct {
	mu       sync.Mutex
	docs     map[string]model.Document
	versions map[string][]model.DocumentVersion
	shares   map[string][]model.Share

	// conflictsPerCommit fails the first attempts of every commit with errs.ErrConflict.
	// Commits are told apart by their comment.
	conflictsPerCommit int
	attempts           map[string]int
}

var _ repository.DocumentRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		docs:     map[string]model.Document{},
		versions: map[string][]model.DocumentVersion{},
		shares:   map[string][]model.Share{},
		attempts: map[string]int{},
	}
}

func (r *memRepo) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return nil, fmt.Errorf("create: %w", errs.ErrConflict)
	}
	d := *doc
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.docs[d.ID] = d
	return &d, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) List(_ context.Context, ownerID string, q repository.ListQuery) (*repository.PageResult[model.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID && (q.IncludeDeleted || !d.IsDeleted) {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if q.Offset > len(all) {
		q.Offset = len(all)
	}
	all = all[q.Offset:]
	if len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return &repository.PageResult[model.Document]{Items: all, Total: total}, nil
}

func (r *memRepo) UpdateSize(_ context.Context, id string, size int64) error {
	return r.update(id, func(d *model.Document) { d.Size = size })
}

func (r *memRepo) SetDeleted(_ context.Context, id string, deleted bool) error {
	return r.update(id, func(d *model.Document) { d.IsDeleted = deleted })
}

func (r *memRepo) update(id string, fn func(d *model.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return errs.ErrNotFound
	}
	fn(&d)
	r.docs[id] = d
	return nil
}

func (r *memRepo) CommitVersion(ctx context.Context, c repository.VersionCommit, stage repository.StageFunc) (*model.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsPerCommit > 0 && c.Comment != nil {
		r.attempts[*c.Comment]++
		if r.attempts[*c.Comment] <= r.conflictsPerCommit {
			return nil, fmt.Errorf("commit version: %w", errs.ErrConflict)
		}
	}
	d, ok := r.docs[c.DocumentID]
	if !ok || (c.OwnerID != "" && d.OwnerID != c.OwnerID) {
		return nil, errs.ErrNotFound
	}
	next := 1
	for _, v := range r.versions[d.ID] {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
	}
	key := d.StorageKey
	if stage != nil {
		var err error
		if key, err = stage(ctx, &d, next); err != nil {
			return nil, err
		}
	}
	size := d.Size
	if c.Size > 0 {
		size = c.Size
	}
	v := model.DocumentVersion{
		ID:            uuid.NewString(),
		DocumentID:    d.ID,
		VersionNumber: next,
		StorageKey:    key,
		Size:          size,
		Comment:       c.Comment,
		CreatedAt:     time.Now(),
	}
	r.versions[d.ID] = append(r.versions[d.ID], v)
	d.Checksum = c.Checksum
	d.CurrentVersionID = &v.ID
	d.Size = size
	r.docs[d.ID] = d
	return &v, nil
}

func (r *memRepo) FindVersion(_ context.Context, documentID string, n int) (*model.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[documentID] {
		if v.VersionNumber == n {
			return &v, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *memRepo) FindVersionByID(_ context.Context, id string) (*model.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, vs := range r.versions {
		for _, v := range vs {
			if v.ID == id {
				return &v, nil
			}
		}
	}
	return nil, errs.ErrNotFound
}

func (r *memRepo) ListVersions(_ context.Context, documentID string) ([]model.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.DocumentVersion(nil), r.versions[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *memRepo) HardDelete(_ context.Context, id string, pendingOnly bool) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if pendingOnly && !d.Pending() {
		return nil, errs.ErrConflict
	}
	keys := []string{d.StorageKey}
	for _, v := range r.versions[id] {
		if v.StorageKey != d.StorageKey {
			keys = append(keys, v.StorageKey)
		}
	}
	delete(r.versions, id)
	delete(r.shares, id)
	delete(r.docs, id)
	return keys, nil
}

func (r *memRepo) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Document
	for _, d := range r.docs {
		if d.Pending() && d.CreatedAt.Before(createdBefore) && len(out) < limit {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memRepo) addShare(s model.Share) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[s.DocumentID] = append(r.shares[s.DocumentID], s)
}

func (r *memRepo) shareCount(documentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shares[documentID])
}
