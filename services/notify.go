package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/choyeojeong/sanbon-attendance-system/models"
)

const (
	maxAttempts  = 3
	pollInterval = 30 * time.Second
)

// Notifier 푸시 아웃박스 워커. Enqueue 는 행만 쌓고, 전송은 백그라운드에서
// 재시도를 포함해 처리한다. 전송 결과는 notifications 테이블로 확인한다.
type Notifier struct {
	db       *gorm.DB
	endpoint string
	client   *http.Client

	wake chan struct{}
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewNotifier(db *gorm.DB, endpoint string) *Notifier {
	return &Notifier{
		db:       db,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Enqueue pending 행을 쌓고 워커를 깨운다. 호출자를 막지 않고, 실패는
// 로그만 남긴다.
func (n *Notifier) Enqueue(token, title, body string) {
	row := models.Notification{
		Token:  token,
		Title:  title,
		Body:   body,
		Status: models.NotifyPending,
	}
	if err := n.db.Create(&row).Error; err != nil {
		log.Printf("[notify] enqueue failed: %v", err)
		return
	}
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *Notifier) Start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-n.stop:
				return
			case <-n.wake:
			case <-ticker.C:
			}
			n.DispatchPending()
		}
	}()
}

func (n *Notifier) Stop() {
	n.once.Do(func() { close(n.stop) })
	n.wg.Wait()
}

// DispatchPending pending 행을 순서대로 전송한다. 실패한 행은 attempts 를
// 올려 두고 다음 주기에 다시 시도, maxAttempts 초과 시 failed 로 마감.
func (n *Notifier) DispatchPending() {
	var rows []models.Notification
	if err := n.db.
		Where("status = ?", models.NotifyPending).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		log.Printf("[notify] fetch pending failed: %v", err)
		return
	}

	for i := range rows {
		row := &rows[i]
		err := n.send(row)
		row.Attempts++
		if err == nil {
			now := time.Now()
			row.Status = models.NotifySent
			row.SentAt = &now
			row.LastError = ""
		} else {
			row.LastError = err.Error()
			if row.Attempts >= maxAttempts {
				row.Status = models.NotifyFailed
			}
			log.Printf("[notify] send #%d attempt %d failed: %v", row.ID, row.Attempts, err)
		}
		if err := n.db.Model(&models.Notification{}).Where("id = ?", row.ID).Updates(map[string]any{
			"status":     row.Status,
			"attempts":   row.Attempts,
			"last_error": row.LastError,
			"sent_at":    row.SentAt,
		}).Error; err != nil {
			log.Printf("[notify] update #%d failed: %v", row.ID, err)
		}
	}
}

type pushPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (n *Notifier) send(row *models.Notification) error {
	buf, err := json.Marshal(pushPayload{Token: row.Token, Title: row.Title, Body: row.Body})
	if err != nil {
		return err
	}
	resp, err := n.client.Post(n.endpoint, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &pushError{status: resp.StatusCode}
	}
	return nil
}

type pushError struct {
	status int
}

func (e *pushError) Error() string {
	return fmt.Sprintf("push endpoint returned status %d", e.status)
}
