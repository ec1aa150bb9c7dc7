package retail

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
)

// SQLInsightRepository is the SQL-based implementation of the InsightRepository.
type SQLInsightRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLInsightRepository creates a new instance of the repository.
func NewSQLInsightRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLInsightRepository {
	return &SQLInsightRepository{
		db:     db,
		logger: logger,
	}
}

// Store saves a generated insight.
func (r *SQLInsightRepository) Store(insight *insights.Insight) error {
	const query = `
		INSERT INTO insights (id, owner_id, type, priority, title, description,
		                      actionable, recommendations, data, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Storing insight", "id", insight.ID, "type", insight.Type)

	recommendations, err := json.Marshal(insight.Recommendations)
	if err != nil {
		return err
	}
	data, err := json.Marshal(insight.Data)
	if err != nil {
		return err
	}

	actionable := 0
	if insight.Actionable {
		actionable = 1
	}

	_, err = r.db.Exec(
		query,
		insight.ID,
		insight.OwnerID,
		insight.Type,
		string(insight.Priority),
		insight.Title,
		insight.Description,
		actionable,
		string(recommendations),
		string(data),
		insight.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Insight insert failed", "error", err.Error(), "id", insight.ID)
		return err
	}

	r.logger.Database().Info("Insight stored", "id", insight.ID, "type", insight.Type, "duration", time.Since(start))
	return nil
}

// FindRecentByOwner returns the most recently generated insights for an owner.
func (r *SQLInsightRepository) FindRecentByOwner(ownerID string, limit int) ([]*insights.Insight, error) {
	const query = `
		SELECT id, owner_id, type, priority, title, description,
		       actionable, recommendations, data, generated_at
		FROM insights
		WHERE owner_id = ?
		ORDER BY generated_at DESC
		LIMIT ?`

	rows, err := r.db.Query(query, ownerID, limit)
	if err != nil {
		r.logger.Database().Error("Failed to load insights", "error", err.Error(), "ownerId", ownerID)
		return nil, err
	}
	defer rows.Close()

	var out []*insights.Insight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, insight)
	}
	return out, rows.Err()
}

func scanInsight(rows *sql.Rows) (*insights.Insight, error) {
	var insight insights.Insight
	var priority, generatedAtStr string
	var description, recommendations, data sql.NullString
	var actionable int

	err := rows.Scan(
		&insight.ID,
		&insight.OwnerID,
		&insight.Type,
		&priority,
		&insight.Title,
		&description,
		&actionable,
		&recommendations,
		&data,
		&generatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	insight.Priority = insights.Priority(priority)
	insight.Actionable = actionable == 1
	if description.Valid {
		insight.Description = description.String
	}
	if recommendations.Valid && recommendations.String != "" {
		if err := json.Unmarshal([]byte(recommendations.String), &insight.Recommendations); err != nil {
			return nil, err
		}
	}
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &insight.Data); err != nil {
			return nil, err
		}
	}

	generatedAt, err := parseTimestamp(generatedAtStr)
	if err != nil {
		return nil, err
	}
	insight.GeneratedAt = generatedAt
	return &insight, nil
}
