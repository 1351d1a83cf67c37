package notifsvc

import (
	"context"
	"fmt"

	basemodels "tamil_society/internal/api/base/models"
	basesvc "tamil_society/internal/api/base/service"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/common"
	"tamil_society/internal/delivery"
	"tamil_society/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeliveryLogReader lists the delivery outcomes of one notification
type DeliveryLogReader interface {
	FindByNotification(ctx context.Context, id primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[notifmodels.DeliveryLog], error)
}

// DeliveryLogService persists delivery batch reports, one row per recipient
type DeliveryLogService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.DeliveryLog]
}

// NewDeliveryLogService uses the registered delivery log collection
func NewDeliveryLogService() (*DeliveryLogService, error) {
	collection, err := global.RegistryCollections.MustGet(global.MongoDB_ColNames.DeliveryLogs)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery log collection: %w", err)
	}
	return &DeliveryLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.DeliveryLog](collection),
	}, nil
}

// NewDeliveryLogServiceWithCollection wraps an explicit collection
func NewDeliveryLogServiceWithCollection(collection *mongo.Collection) *DeliveryLogService {
	return &DeliveryLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.DeliveryLog](collection),
	}
}

// SaveReport stores every result of report
func (s *DeliveryLogService) SaveReport(ctx context.Context, report *delivery.BatchReport) error {
	logs := DeliveryLogsFromReport(report)
	if len(logs) == 0 {
		return nil
	}

	docs := make([]interface{}, len(logs))
	for i := range logs {
		docs[i] = logs[i]
	}
	if _, err := s.Collection().InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}

// FindByNotification returns the outcomes of one notification, newest first
func (s *DeliveryLogService) FindByNotification(ctx context.Context, id primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[notifmodels.DeliveryLog], error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return s.FindWithPagination(ctx, bson.M{"notificationId": id}, page, limit, opts)
}

// DeliveryLogsFromReport converts a batch report into log rows stamped with the report's finish time
func DeliveryLogsFromReport(report *delivery.BatchReport) []notifmodels.DeliveryLog {
	if report == nil {
		return nil
	}

	createdAt := report.FinishedAt.UnixMilli()
	logs := make([]notifmodels.DeliveryLog, 0, len(report.Results))
	for _, res := range report.Results {
		entry := notifmodels.DeliveryLog{
			ID:             primitive.NewObjectID(),
			NotificationID: res.NotificationID,
			RecipientID:    res.RecipientID,
			Email:          res.Email,
			Template:       res.Template,
			Language:       res.Language,
			Status:         string(res.Outcome),
			Reason:         res.Reason,
			DurationMs:     res.Duration.Milliseconds(),
			CreatedAt:      createdAt,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		logs = append(logs, entry)
	}
	return logs
}
