package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/Transformer"
	"github.com/GrainArc/EarthWork/alignment"
	"github.com/google/uuid"
)

// SurfaceSnapshot 不可变的曲面快照，编辑时整体替换
type SurfaceSnapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Format    string          `json:"format"`
	Crs       Transformer.Crs `json:"crs"`
	Summary   Tin.Summary     `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
	Surface   *Tin.TIN3D      `json:"-"`
}

// AlignmentSnapshot 不可变的线形快照
type AlignmentSnapshot struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Format         string               `json:"format"`
	Crs            Transformer.Crs      `json:"crs"`
	Length         float64              `json:"length"`
	HasProfile     bool                 `json:"has_profile"`
	Superelevation int                  `json:"superelevation_rows"`
	CreatedAt      time.Time            `json:"created_at"`
	Alignment      *alignment.Alignment `json:"-"`
}

// NotFoundError 快照不存在
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// SnapshotStore 内存中的曲面与线形快照。
// 锁只保护索引本身，快照对象构造后只读，计算期间不持锁。
type SnapshotStore struct {
	mu         sync.RWMutex
	surfaces   map[string]*SurfaceSnapshot
	alignments map[string]*AlignmentSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		surfaces:   make(map[string]*SurfaceSnapshot),
		alignments: make(map[string]*AlignmentSnapshot),
	}
}

// PutSurface 保存新的曲面快照并分配ID
func (s *SnapshotStore) PutSurface(name, format string, crs Transformer.Crs, tin *Tin.TIN3D) *SurfaceSnapshot {
	snap := &SurfaceSnapshot{
		ID:        uuid.New().String(),
		Name:      name,
		Format:    format,
		Crs:       crs,
		Summary:   tin.Summary(),
		CreatedAt: time.Now(),
		Surface:   tin,
	}
	s.mu.Lock()
	s.surfaces[snap.ID] = snap
	s.mu.Unlock()
	return snap
}

func (s *SnapshotStore) Surface(id string) (*SurfaceSnapshot, error) {
	s.mu.RLock()
	snap, ok := s.surfaces[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Kind: "surface", ID: id}
	}
	return snap, nil
}

// ReplaceSurface 用编辑后的TIN替换快照，已经取得旧快照的计算不受影响
func (s *SnapshotStore) ReplaceSurface(id string, tin *Tin.TIN3D) (*SurfaceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.surfaces[id]
	if !ok {
		return nil, &NotFoundError{Kind: "surface", ID: id}
	}
	snap := *old
	snap.Surface = tin
	snap.Summary = tin.Summary()
	snap.CreatedAt = time.Now()
	s.surfaces[id] = &snap
	return &snap, nil
}

func (s *SnapshotStore) Surfaces() []*SurfaceSnapshot {
	s.mu.RLock()
	out := make([]*SurfaceSnapshot, 0, len(s.surfaces))
	for _, snap := range s.surfaces {
		out = append(out, snap)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func newAlignmentSnapshot(id, name, format string, crs Transformer.Crs, a *alignment.Alignment) *AlignmentSnapshot {
	return &AlignmentSnapshot{
		ID:             id,
		Name:           name,
		Format:         format,
		Crs:            crs,
		Length:         a.Length(),
		HasProfile:     a.Profile != nil,
		Superelevation: len(a.Superelevation),
		CreatedAt:      time.Now(),
		Alignment:      a,
	}
}

func (s *SnapshotStore) PutAlignment(name, format string, crs Transformer.Crs, a *alignment.Alignment) *AlignmentSnapshot {
	snap := newAlignmentSnapshot(uuid.New().String(), name, format, crs, a)
	s.mu.Lock()
	s.alignments[snap.ID] = snap
	s.mu.Unlock()
	return snap
}

func (s *SnapshotStore) Alignment(id string) (*AlignmentSnapshot, error) {
	s.mu.RLock()
	snap, ok := s.alignments[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Kind: "alignment", ID: id}
	}
	return snap, nil
}

// ReplaceAlignment 替换线形（例如更新纵断面或超高表）
func (s *SnapshotStore) ReplaceAlignment(id string, a *alignment.Alignment) (*AlignmentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.alignments[id]
	if !ok {
		return nil, &NotFoundError{Kind: "alignment", ID: id}
	}
	snap := newAlignmentSnapshot(id, old.Name, old.Format, old.Crs, a)
	s.alignments[id] = snap
	return snap, nil
}

func (s *SnapshotStore) Alignments() []*AlignmentSnapshot {
	s.mu.RLock()
	out := make([]*AlignmentSnapshot, 0, len(s.alignments))
	for _, snap := range s.alignments {
		out = append(out, snap)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
