// Package queue delivers notifications out-of-band. Persisting a
// notification is synchronous with the task transition; pushing it to
// the recipient's device goes through this Redis-stream queue so a slow
// or failing delivery channel never blocks a lifecycle write.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"tutorhub/internal/util"
)

const (
	StatusQueued     = "queued"
	StatusDelivering = "delivering"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
)

type Delivery struct {
	ID             string    `json:"id"`
	NotificationID string    `json:"notificationId"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	Attempts       int       `json:"attempts"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RedisDeliveryQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	jobTTL       time.Duration
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	readCount    int64
	claimCount   int64
	once         sync.Once
}

type RedisQueueConfig struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	JobTTL     time.Duration
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
	MaxLen     int64
	ReadCount  int64
	ClaimCount int64
}

func NewRedisDeliveryQueue(cfg RedisQueueConfig) (*RedisDeliveryQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("queue stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "default"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	jobTTL := cfg.JobTTL
	if jobTTL <= 0 {
		jobTTL = 24 * time.Hour
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	readCount := cfg.ReadCount
	if readCount <= 0 {
		readCount = 10
	}
	claimCount := cfg.ClaimCount
	if claimCount <= 0 {
		claimCount = 10
	}

	return &RedisDeliveryQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		jobTTL:       jobTTL,
		maxRetries:   maxRetries,
		block:        block,
		claimIdle:    claimIdle,
		retryDelay:   retryDelay,
		maxLen:       maxLen,
		readCount:    readCount,
		claimCount:   claimCount,
	}, nil
}

// Enqueue schedules a notification for delivery.
func (q *RedisDeliveryQueue) Enqueue(ctx context.Context, notificationID string) (Delivery, error) {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return Delivery{}, errors.New("notificationId required")
	}
	job := Delivery{
		ID:             util.NewID(),
		NotificationID: notificationID,
		Status:         StatusQueued,
		Attempts:       0,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return Delivery{}, err
	}
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":          job.ID,
			"notification_id": job.NotificationID,
		},
	}).Err(); err != nil {
		return Delivery{}, err
	}
	return job, nil
}

// GetDelivery returns a delivery job's recorded state.
func (q *RedisDeliveryQueue) GetDelivery(ctx context.Context, jobID string) (Delivery, bool, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return Delivery{}, false, nil
	}
	data, err := q.client.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return Delivery{}, false, err
	}
	if len(data) == 0 {
		return Delivery{}, false, nil
	}
	job, err := decodeDelivery(jobID, data)
	if err != nil {
		return Delivery{}, false, err
	}
	return job, true, nil
}

// Start launches consumer goroutines that call handler per job.
func (q *RedisDeliveryQueue) Start(ctx context.Context, concurrency int, handler func(context.Context, Delivery) error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		go q.consumeLoop(ctx, consumer, handler)
	}
}

func (q *RedisDeliveryQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			slog.Warn("create consumer group", "stream", q.stream, "err", err)
		}
	})
}

func (q *RedisDeliveryQueue) consumeLoop(ctx context.Context, consumer string, handler func(context.Context, Delivery) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    q.readCount,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisDeliveryQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    q.claimCount,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (q *RedisDeliveryQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler func(context.Context, Delivery) error) {
	jobID, _ := msg.Values["job_id"].(string)
	notificationID, _ := msg.Values["notification_id"].(string)
	if jobID == "" || notificationID == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	job, err := q.markDelivering(ctx, jobID, notificationID)
	if err != nil {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	if err := handler(ctx, job); err == nil {
		_ = q.markDelivered(ctx, jobID)
		q.ackAndDel(ctx, msg.ID)
		return
	} else if job.Attempts >= q.maxRetries {
		_ = q.markFailed(ctx, jobID, err.Error())
		q.ackAndDel(ctx, msg.ID)
		return
	} else {
		_ = q.markQueued(ctx, jobID, err.Error())
	}
	if q.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
	}
	_ = q.requeueAndAck(ctx, msg.ID, jobID, notificationID)
}

func (q *RedisDeliveryQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

func (q *RedisDeliveryQueue) requeueAndAck(ctx context.Context, msgID, jobID, notificationID string) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":          jobID,
			"notification_id": notificationID,
		},
	})
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisDeliveryQueue) markDelivering(ctx context.Context, jobID, notificationID string) (Delivery, error) {
	job, _, err := q.GetDelivery(ctx, jobID)
	if err != nil {
		return Delivery{}, err
	}
	if job.ID == "" {
		job = Delivery{ID: jobID}
	}
	if notificationID != "" {
		job.NotificationID = notificationID
	}
	job.Attempts++
	job.Status = StatusDelivering
	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return Delivery{}, err
	}
	return job, nil
}

func (q *RedisDeliveryQueue) markQueued(ctx context.Context, jobID, errMsg string) error {
	return q.setStatus(ctx, jobID, StatusQueued, errMsg)
}

func (q *RedisDeliveryQueue) markDelivered(ctx context.Context, jobID string) error {
	return q.setStatus(ctx, jobID, StatusDelivered, "")
}

func (q *RedisDeliveryQueue) markFailed(ctx context.Context, jobID, errMsg string) error {
	return q.setStatus(ctx, jobID, StatusFailed, errMsg)
}

func (q *RedisDeliveryQueue) setStatus(ctx context.Context, jobID, status, errMsg string) error {
	job, _, err := q.GetDelivery(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()
	return q.writeStatus(ctx, job)
}

func (q *RedisDeliveryQueue) writeStatus(ctx context.Context, job Delivery) error {
	key := q.jobKey(job.ID)
	payload := map[string]any{
		"id":             job.ID,
		"notificationId": job.NotificationID,
		"status":         job.Status,
		"error":          job.ErrorMessage,
		"attempts":       strconv.Itoa(job.Attempts),
		"createdAt":      job.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":      job.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := q.client.HSet(ctx, key, payload).Err(); err != nil {
		return err
	}
	_ = q.client.Expire(ctx, key, q.jobTTL).Err()
	return nil
}

func (q *RedisDeliveryQueue) jobKey(jobID string) string {
	return fmt.Sprintf("notify:%s:%s", q.stream, jobID)
}

func decodeDelivery(jobID string, data map[string]string) (Delivery, error) {
	job := Delivery{ID: jobID}
	if v := data["notificationId"]; v != "" {
		job.NotificationID = v
	}
	if v := data["status"]; v != "" {
		job.Status = v
	}
	if v := data["error"]; v != "" {
		job.ErrorMessage = v
	}
	if v := data["attempts"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			job.Attempts = n
		}
	}
	if v := data["createdAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			job.CreatedAt = t
		}
	}
	if v := data["updatedAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			job.UpdatedAt = t
		}
	}
	return job, nil
}
