package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/printforge/printforge/api/internal/domain"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	id := uuid.New()
	now := time.Now()

	metadataJSON, err := json.Marshal(input.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	var changesJSON []byte
	if input.Changes != nil {
		changesJSON, err = json.Marshal(input.Changes)
		if err != nil {
			changesJSON = nil
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, tenant_id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, changes, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.db.ExecContext(ctx, query,
		id, input.TenantID, input.ActorID, input.ActorEmail, input.ActorType,
		input.Action, input.ResourceType, input.ResourceID, input.ResourceName, input.Description,
		metadataJSON, changesJSON, input.IPAddress, input.UserAgent, input.RequestID, now,
	)
	if err != nil {
		return nil, err
	}

	return &domain.AuditLog{
		ID:           id,
		TenantID:     input.TenantID,
		ActorID:      input.ActorID,
		ActorEmail:   input.ActorEmail,
		ActorType:    input.ActorType,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		ResourceName: input.ResourceName,
		Description:  input.Description,
		Metadata:     input.Metadata,
		Changes:      input.Changes,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		RequestID:    input.RequestID,
		CreatedAt:    now,
	}, nil
}

// GetAuditLog retrieves a single audit log entry
func (r *AuditRepository) GetAuditLog(ctx context.Context, tenantID, logID uuid.UUID) (*domain.AuditLog, error) {
	query := `
		SELECT id, tenant_id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, changes, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		WHERE id = $1 AND tenant_id = $2`

	var log domain.AuditLog
	var metadataJSON, changesJSON []byte

	err := r.db.QueryRowContext(ctx, query, logID, tenantID).Scan(
		&log.ID, &log.TenantID, &log.ActorID, &log.ActorEmail, &log.ActorType,
		&log.Action, &log.ResourceType, &log.ResourceID, &log.ResourceName, &log.Description,
		&metadataJSON, &changesJSON, &log.IPAddress, &log.UserAgent, &log.RequestID, &log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if metadataJSON != nil {
		json.Unmarshal(metadataJSON, &log.Metadata)
	}
	if changesJSON != nil {
		json.Unmarshal(changesJSON, &log.Changes)
	}

	return &log, nil
}

// ListAuditLogs retrieves audit logs with filtering and pagination
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argNum))
		args = append(args, *filter.TenantID)
		argNum++
	}

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argNum))
		args = append(args, *filter.ActorID)
		argNum++
	}

	if filter.Action != nil {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argNum))
		args = append(args, *filter.Action)
		argNum++
	}

	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, action := range filter.Actions {
			placeholders[i] = fmt.Sprintf("$%d", argNum)
			args = append(args, action)
			argNum++
		}
		conditions = append(conditions, fmt.Sprintf("action IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.ResourceType != nil {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", argNum))
		args = append(args, *filter.ResourceType)
		argNum++
	}

	if filter.ResourceID != nil {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argNum))
		args = append(args, *filter.ResourceID)
		argNum++
	}

	if filter.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, *filter.StartTime)
		argNum++
	}

	if filter.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, *filter.EndTime)
		argNum++
	}

	if filter.SearchQuery != nil && *filter.SearchQuery != "" {
		conditions = append(conditions, fmt.Sprintf(
			"to_tsvector('english', coalesce(description, '') || ' ' || coalesce(resource_name, '')) @@ plainto_tsquery('english', $%d)",
			argNum,
		))
		args = append(args, *filter.SearchQuery)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause)
	var totalCount int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, err
	}

	// Get data
	limit := 50
	if filter.Limit > 0 && filter.Limit <= 1000 {
		limit = filter.Limit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, tenant_id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, changes, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var metadataJSON, changesJSON []byte

		if err := rows.Scan(
			&log.ID, &log.TenantID, &log.ActorID, &log.ActorEmail, &log.ActorType,
			&log.Action, &log.ResourceType, &log.ResourceID, &log.ResourceName, &log.Description,
			&metadataJSON, &changesJSON, &log.IPAddress, &log.UserAgent, &log.RequestID, &log.CreatedAt,
		); err != nil {
			return nil, err
		}

		if metadataJSON != nil {
			json.Unmarshal(metadataJSON, &log.Metadata)
		}
		if changesJSON != nil {
			json.Unmarshal(changesJSON, &log.Changes)
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.AuditLogList{
		Data:       logs,
		TotalCount: totalCount,
		HasMore:    offset+len(logs) < totalCount,
	}, nil
}

// GetAuditSummary returns aggregated audit statistics
func (r *AuditRepository) GetAuditSummary(ctx context.Context, tenantID uuid.UUID, period string) (*domain.AuditSummary, error) {
	var interval string
	switch period {
	case "day":
		interval = "1 day"
	case "week":
		interval = "7 days"
	case "month":
		interval = "30 days"
	default:
		interval = "7 days"
		period = "week"
	}

	summary := &domain.AuditSummary{
		TenantID:         tenantID,
		Period:           period,
		EventsByAction:   make(map[domain.AuditAction]int),
		EventsByResource: make(map[domain.AuditResourceType]int),
	}

	// Total events
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_logs WHERE tenant_id = $1 AND created_at > NOW() - $2::INTERVAL",
		tenantID, interval,
	).Scan(&summary.TotalEvents)
	if err != nil {
		return nil, err
	}

	// Events by action
	actionRows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*) as count
		FROM audit_logs
		WHERE tenant_id = $1 AND created_at > NOW() - $2::INTERVAL
		GROUP BY action`,
		tenantID, interval)
	if err != nil {
		return nil, err
	}
	defer actionRows.Close()

	for actionRows.Next() {
		var action string
		var count int
		if err := actionRows.Scan(&action, &count); err != nil {
			return nil, err
		}
		summary.EventsByAction[domain.AuditAction(action)] = count
	}

	// Events by resource type
	resourceRows, err := r.db.QueryContext(ctx, `
		SELECT resource_type, COUNT(*) as count
		FROM audit_logs
		WHERE tenant_id = $1 AND created_at > NOW() - $2::INTERVAL
		GROUP BY resource_type`,
		tenantID, interval)
	if err != nil {
		return nil, err
	}
	defer resourceRows.Close()

	for resourceRows.Next() {
		var resourceType string
		var count int
		if err := resourceRows.Scan(&resourceType, &count); err != nil {
			return nil, err
		}
		summary.EventsByResource[domain.AuditResourceType(resourceType)] = count
	}

	// Unique actors
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT actor_email)
		FROM audit_logs
		WHERE tenant_id = $1 AND created_at > NOW() - $2::INTERVAL`,
		tenantID, interval,
	).Scan(&summary.UniqueActors)
	if err != nil {
		return nil, err
	}

	// Top actors
	topActorRows, err := r.db.QueryContext(ctx, `
		SELECT actor_id, actor_email, actor_type, COUNT(*) as event_count
		FROM audit_logs
		WHERE tenant_id = $1 AND created_at > NOW() - $2::INTERVAL
		GROUP BY actor_id, actor_email, actor_type
		ORDER BY event_count DESC
		LIMIT 10`,
		tenantID, interval)
	if err != nil {
		return nil, err
	}
	defer topActorRows.Close()

	for topActorRows.Next() {
		var actor domain.AuditActorSummary
		if err := topActorRows.Scan(&actor.ActorID, &actor.ActorEmail, &actor.ActorType, &actor.EventCount); err != nil {
			return nil, err
		}
		summary.TopActors = append(summary.TopActors, actor)
	}

	return summary, nil
}

// DeleteAuditLogsBefore deletes audit logs older than the specified time
func (r *AuditRepository) DeleteAuditLogsBefore(ctx context.Context, tenantID uuid.UUID, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_logs WHERE tenant_id = $1 AND created_at < $2",
		tenantID, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
