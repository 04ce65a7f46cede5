package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/pkg/logger"
)

// AuditEntry captures a single engine mutation to persist.
type AuditEntry struct {
	OrgID        string
	ActorUserID  *string
	TargetUserID string
	Action       string
	Result       string
	Metadata     map[string]any
}

// AuditListOptions controls pagination for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Action   string
	Since    *time.Time
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.OrgID) == "" {
		return errors.New("audit service: org id is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	var payload datatypes.JSON
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		payload = datatypes.JSON(encoded)
	}

	log := models.AuditLog{
		OrgID:        strings.TrimSpace(entry.OrgID),
		TargetUserID: strings.TrimSpace(entry.TargetUserID),
		Action:       strings.TrimSpace(entry.Action),
		Result:       strings.TrimSpace(entry.Result),
		Metadata:     payload,
	}

	if entry.ActorUserID != nil && strings.TrimSpace(*entry.ActorUserID) != "" {
		id := strings.TrimSpace(*entry.ActorUserID)
		log.ActorUserID = &id
	}

	return s.db.WithContext(ctx).Create(&log).Error
}

// ListForOrg returns paginated audit logs for one organization, newest first.
func (s *AuditService) ListForOrg(ctx context.Context, orgID string, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("org_id = ?", orgID)
	if opts.Action != "" {
		query = query.Where("action = ?", opts.Action)
	}
	if opts.Since != nil {
		query = query.Where("created_at >= ?", *opts.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	var results []models.AuditLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(ctx context.Context, audit *AuditService, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.Warn("failed to record audit entry",
			zap.String("org_id", entry.OrgID),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
