package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	data map[uuid.UUID]Patient
	last ListOptions
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: make(map[uuid.UUID]Patient)}
}

func (r *fakeRepo) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	r.last = opts
	var out []Patient
	for _, p := range r.data {
		out = append(out, p)
	}
	return ListResult{Patients: out, Page: opts.Page, PageSize: opts.PageSize, Total: int64(len(out))}, nil
}

func (r *fakeRepo) Create(ctx context.Context, p Patient) (Patient, error) {
	for _, existing := range r.data {
		if existing.MRN == p.MRN {
			return Patient{}, ErrConflictMRN
		}
	}
	p.ID = int64(len(r.data) + 1)
	r.data[p.PublicID] = p
	return p, nil
}

func (r *fakeRepo) GetByPublicID(ctx context.Context, publicID uuid.UUID) (Patient, error) {
	p, ok := r.data[publicID]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, publicID uuid.UUID, input UpdateInput) (Patient, error) {
	p, ok := r.data[publicID]
	if !ok {
		return Patient{}, ErrNotFound
	}
	if input.FirstName != nil {
		p.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		p.LastName = *input.LastName
	}
	r.data[publicID] = p
	return p, nil
}

func TestCreateTrimsAndValidates(t *testing.T) {
	svc := New(newFakeRepo())

	p, err := svc.Create(context.Background(), CreateInput{
		MRN:       "  MRN-001 ",
		FirstName: " Amina ",
		LastName:  " Otieno ",
	})
	require.NoError(t, err)
	require.Equal(t, "MRN-001", p.MRN)
	require.Equal(t, "Amina", p.FirstName)
	require.NotEqual(t, uuid.Nil, p.PublicID)

	_, err = svc.Create(context.Background(), CreateInput{FirstName: "NoMRN", LastName: "Patient"})
	require.Error(t, err)
}

func TestCreateDuplicateMRN(t *testing.T) {
	svc := New(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateInput{MRN: "MRN-1", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{MRN: "MRN-1", FirstName: "C", LastName: "D"})
	require.ErrorIs(t, err, ErrConflictMRN)
}

func TestListClampsPagination(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo)

	_, err := svc.List(context.Background(), ListOptions{Page: 0, PageSize: 1000})
	require.NoError(t, err)
	require.Equal(t, 1, repo.last.Page)
	require.Equal(t, 20, repo.last.PageSize)
}
