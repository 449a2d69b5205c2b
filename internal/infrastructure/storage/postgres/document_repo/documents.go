// Package document_repo provides the PostgreSQL document repository.
// All four document kinds share one header table and one lines table.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/documents"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	documentsTable = "documents"
	linesTable     = "document_lines"
)

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
	cols     []string
	lineCols []string
}

var _ documents.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(txm *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:     postgres.ExtractDBColumns[documents.Document](),
		lineCols: postgres.ExtractDBColumns[documents.Line](),
	}
}

// Create inserts the header and copies the lines in one transaction.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cols, values := postgres.Columns(postgres.StructToMap(doc), r.cols)
		sql, args, err := r.builder.Insert(documentsTable).Columns(cols...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			if postgres.IsUniqueViolation(err, postgres.ConstraintDocumentNumber) {
				return apperror.NewDuplicate("document", "number", doc.Number)
			}
			return fmt.Errorf("insert document: %w", err)
		}

		rows := make([][]any, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			rows = append(rows, []any{
				l.ID, l.DocumentID, l.LineNo, l.ProductID, l.BatchNumber,
				l.Quantity, l.BonusQuantity,
				postgres.Numeric(l.UnitPrice), postgres.Numeric(l.SalePrice),
				l.ExpiryDate, l.BatchID,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, linesTable, r.lineCols, rows); err != nil {
			return fmt.Errorf("copy document lines: %w", err)
		}
		return nil
	})
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.get(ctx, docID, false)
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.get(ctx, docID, true)
}

func (r *DocumentRepo) get(ctx context.Context, docID id.ID, forUpdate bool) (*documents.Document, error) {
	q := r.builder.Select(r.cols...).From(documentsTable).Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := r.attachLines(ctx, []*documents.Document{&doc}); err != nil {
		return nil, err
	}
	return &doc, nil
}

// attachLines loads the lines of all docs with one query.
func (r *DocumentRepo) attachLines(ctx context.Context, docs []*documents.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[id.ID]*documents.Document, len(docs))
	ids := make([]id.ID, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	sql, args, err := r.builder.Select(r.lineCols...).From(linesTable).
		Where(squirrel.Eq{"document_id": ids}).
		OrderBy("document_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	var lines []documents.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return fmt.Errorf("select document lines: %w", err)
	}
	for _, l := range lines {
		if d, ok := byID[l.DocumentID]; ok {
			d.Lines = append(d.Lines, l)
		}
	}
	return nil
}

// SetVoucher only applies while voucher_id is still NULL.
func (r *DocumentRepo) SetVoucher(ctx context.Context, docID, voucherID id.ID, at time.Time) (bool, error) {
	sql, args, err := r.builder.Update(documentsTable).
		Set("voucher_id", voucherID).
		Set("confirmed_at", at).
		Where(squirrel.Eq{"id": docID, "voucher_id": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("link document voucher: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DocumentRepo) SetLineBatch(ctx context.Context, lineID, batchID id.ID) error {
	sql, args, err := r.builder.Update(linesTable).
		Set("batch_id", batchID).
		Where(squirrel.Eq{"id": lineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("document line", lineID)
	}
	return nil
}

func (r *DocumentRepo) List(ctx context.Context, filter documents.ListFilter) ([]*documents.Document, error) {
	q := r.builder.Select(r.cols...).From(documentsTable).OrderBy("doc_date", "number")
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.Confirmed != nil {
		if *filter.Confirmed {
			q = q.Where(squirrel.NotEq{"voucher_id": nil})
		} else {
			q = q.Where(squirrel.Eq{"voucher_id": nil})
		}
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"doc_date": filter.FromDate.Format(time.DateOnly)})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"doc_date": filter.ToDate.Format(time.DateOnly)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*documents.Document
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}
