package models

import (
	"fmt"
	"time"
)

// EntryStatus статус заявки участника
type EntryStatus string

const (
	EntryStatusNew        EntryStatus = "new"
	EntryStatusProcessing EntryStatus = "processing"
	EntryStatusCommented  EntryStatus = "commented"
	EntryStatusWinner     EntryStatus = "winner"
	EntryStatusUsed       EntryStatus = "used"
	EntryStatusError      EntryStatus = "error"
)

// PostRef ссылка на пост или комментарий, которым пользователь выполнил условие
type PostRef struct {
	OwnerID   int64  `json:"owner_id"`
	PostID    int64  `json:"post_id"`
	CommentID int64  `json:"comment_id,omitempty"`
	Link      string `json:"link,omitempty"`
}

// URL ссылка на пост для шаблонов и журнала доставки
func (p PostRef) URL() string {
	if p.Link != "" {
		return p.Link
	}
	if p.PostID == 0 {
		return ""
	}
	return fmt.Sprintf("https://vk.com/wall%d_%d", p.OwnerID, p.PostID)
}

// Entry одна заявка участника в рамках цикла
type Entry struct {
	ID          string      `json:"id"`
	ContestID   string      `json:"contest_id"`
	CycleID     string      `json:"cycle_id"`
	UserVkID    int64       `json:"user_vk_id"`
	UserName    string      `json:"user_name"`
	Post        PostRef     `json:"post"`
	EntryNumber int64       `json:"entry_number"`
	Status      EntryStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsCandidate заявка может участвовать в выборе победителя
func (e *Entry) IsCandidate() bool {
	return e.Status == EntryStatusNew || e.Status == EntryStatusCommented
}

// WinnerRecord история побед, используется для unique_winner
type WinnerRecord struct {
	ContestID string `json:"contest_id"`
	UserVkID  int64  `json:"user_vk_id"`
	CycleID   string `json:"cycle_id"`
}
