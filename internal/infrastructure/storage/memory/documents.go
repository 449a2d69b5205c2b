package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/documents"
)

// DocumentRepo implements documents.Repository.
type DocumentRepo struct{ s *Store }

var _ documents.Repository = (*DocumentRepo)(nil)

func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.documents {
			if existing.Kind == doc.Kind && existing.Number == doc.Number {
				return apperror.NewDuplicate("document", "number", doc.Number)
			}
		}
		row := *doc
		row.Lines = slices.Clone(doc.Lines)
		st.documents[doc.ID] = row
		return nil
	})
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	var out *documents.Document
	err := r.s.read(ctx, func(st *state) error {
		doc, ok := st.documents[docID]
		if !ok {
			return apperror.NewNotFound("document", docID)
		}
		doc.Lines = slices.Clone(doc.Lines)
		out = &doc
		return nil
	})
	return out, err
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.GetByID(ctx, docID)
}

func (r *DocumentRepo) SetVoucher(ctx context.Context, docID, voucherID id.ID, at time.Time) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		doc, found := st.documents[docID]
		if !found || doc.VoucherID != nil {
			return nil
		}
		doc.VoucherID = &voucherID
		doc.ConfirmedAt = &at
		st.documents[docID] = doc
		ok = true
		return nil
	})
	return ok, err
}

func (r *DocumentRepo) SetLineBatch(ctx context.Context, lineID, batchID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		for docID, doc := range st.documents {
			i := slices.IndexFunc(doc.Lines, func(l documents.Line) bool { return l.ID == lineID })
			if i < 0 {
				continue
			}
			// Copy before writing: the snapshot shares the old slice.
			doc.Lines = slices.Clone(doc.Lines)
			doc.Lines[i].BatchID = &batchID
			st.documents[docID] = doc
			return nil
		}
		return apperror.NewNotFound("document line", lineID)
	})
}

func (r *DocumentRepo) List(ctx context.Context, filter documents.ListFilter) ([]*documents.Document, error) {
	var out []*documents.Document
	err := r.s.read(ctx, func(st *state) error {
		for _, doc := range st.documents {
			if filter.Kind != nil && doc.Kind != *filter.Kind {
				continue
			}
			if filter.PartyID != nil && doc.PartyID != *filter.PartyID {
				continue
			}
			if filter.Confirmed != nil && doc.Confirmed() != *filter.Confirmed {
				continue
			}
			if !inRange(doc.Date, filter.FromDate, filter.ToDate) {
				continue
			}
			doc.Lines = slices.Clone(doc.Lines)
			out = append(out, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Number < out[j].Number
	})
	return page(out, filter.Offset, filter.Limit), nil
}
