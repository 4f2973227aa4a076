// Package firestore keeps person records in Cloud Firestore under
// owners/{owner}/persons/{name}. Writes that depend on the stored version run
// inside a Firestore transaction.
package firestore

import (
	"context"
	"errors"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

const (
	ownersCollection  = "owners"
	personsCollection = "persons"
)

type personDoc struct {
	Name            string                 `firestore:"name"`
	Mode            string                 `firestore:"mode"`
	History         []string               `firestore:"history"`
	Analysis        *model.AnalysisResult  `firestore:"analysis"`
	CounselMessages []model.CounselMessage `firestore:"counselMessages"`
	Version         int64                  `firestore:"version"`
	UpdatedAt       time.Time              `firestore:"updatedAt"`
}

func toDoc(p *model.Person) personDoc {
	return personDoc{
		Name:            p.Name,
		Mode:            string(p.Mode),
		History:         p.History,
		Analysis:        p.Analysis,
		CounselMessages: p.CounselMessages,
		Version:         p.Version,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromSnapshot(owner string, snap *firestore.DocumentSnapshot) (*model.Person, error) {
	var d personDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	p := &model.Person{
		Owner:           owner,
		Name:            d.Name,
		Mode:            model.RelationshipMode(d.Mode),
		History:         d.History,
		Analysis:        d.Analysis,
		CounselMessages: d.CounselMessages,
		Version:         d.Version,
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	if p.History == nil {
		p.History = []string{}
	}
	if p.CounselMessages == nil {
		p.CounselMessages = []model.CounselMessage{}
	}
	return p, nil
}

type fsStore struct {
	client *firestore.Client
}

// New creates a client for projectID. FIRESTORE_EMULATOR_HOST is honored by the SDK.
func New(ctx context.Context, projectID string) (store.Store, error) {
	c, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, classify("connect", err)
	}
	return NewWithClient(c), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *firestore.Client) store.Store { return &fsStore{client: c} }

func (s *fsStore) Persons() store.Persons { return &persons{s.client} }
func (s *fsStore) Close() error          { return s.client.Close() }

func (s *fsStore) HealthPing(ctx context.Context) error {
	it := s.client.Collection(ownersCollection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

type persons struct{ client *firestore.Client }

func (r *persons) coll(owner string) *firestore.CollectionRef {
	return r.client.Collection(ownersCollection).Doc(docID(owner)).Collection(personsCollection)
}

// docID escapes names so "/" and reserved ids like "." stay valid document ids.
func docID(name string) string {
	return "p_" + url.QueryEscape(name)
}

func (r *persons) Get(ctx context.Context, owner, name string) (*model.Person, error) {
	snap, err := r.coll(owner).Doc(docID(name)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, classify("get", err)
	}
	return fromSnapshot(owner, snap)
}

func (r *persons) List(ctx context.Context, owner string) ([]*model.Person, error) {
	snaps, err := r.coll(owner).OrderBy("updatedAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, classify("list", err)
	}
	out := make([]*model.Person, 0, len(snaps))
	for _, snap := range snaps {
		p, err := fromSnapshot(owner, snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	model.SortNewestFirst(out)
	return out, nil
}

func (r *persons) Create(ctx context.Context, in *model.Person) (*model.Person, error) {
	p := store.Prepare(in, 1)
	_, err := r.coll(p.Owner).Doc(docID(p.Name)).Create(ctx, toDoc(p))
	if status.Code(err) == codes.AlreadyExists {
		return nil, model.ErrNameCollision
	}
	if err != nil {
		return nil, classify("create", err)
	}
	return p, nil
}

func (r *persons) Update(ctx context.Context, in *model.Person, expectedVersion int64) (*model.Person, error) {
	p := store.Prepare(in, expectedVersion+1)
	ref := r.coll(p.Owner).Doc(docID(p.Name))
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := fromSnapshot(p.Owner, snap)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return model.ErrConcurrentModification
		}
		p.Mode = cur.Mode
		return tx.Set(ref, toDoc(p))
	})
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrConcurrentModification):
		return nil, err
	case status.Code(err) == codes.Aborted:
		return nil, model.ErrConcurrentModification
	default:
		return nil, classify("update", err)
	}
}

func (r *persons) Delete(ctx context.Context, owner, name string) error {
	ref := r.coll(owner).Doc(docID(name))
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return model.ErrNotFound
			}
			return err
		}
		return tx.Delete(ref)
	})
	if err == nil || errors.Is(err, model.ErrNotFound) {
		return err
	}
	return classify("delete", err)
}

func classify(op string, err error) error {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return model.NewStoreError(model.StorePermissionDenied, op, err)
	case codes.NotFound, codes.FailedPrecondition:
		return model.NewStoreError(model.StoreNotProvisioned, op, err)
	}
	return model.NewStoreError(model.StoreOffline, op, err)
}
