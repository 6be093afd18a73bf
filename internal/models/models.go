package models

import (
	"time"
)

// User is an account that writes posts and comments and follows authors.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Group is a thematic community a post may belong to.
type Group struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"not null" json:"description"`
}

func (Group) TableName() string { return GroupsTable }

// Post is a blog entry. PubDate is written on insert only.
type Post struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	Text     string    `gorm:"not null" json:"text"`
	PubDate  time.Time `gorm:"<-:create;not null;index" json:"pubDate"`
	AuthorID uint      `gorm:"not null;index" json:"-"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"-"`
	Group    *Group    `gorm:"constraint:OnDelete:SET NULL;" json:"group"`
	Image    string    `json:"image,omitempty"`

	CommentCount int64 `gorm:"-" json:"commentCount"`
}

// Preview is the short form used when a post is printed.
func (p Post) Preview() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}

// Comment is a reply to a post. Created is written on insert only.
type Comment struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"postId"`
	Post     Post      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	AuthorID uint      `gorm:"not null;index" json:"-"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE;" json:"author"`
	Text     string    `gorm:"not null" json:"text"`
	Created  time.Time `gorm:"<-:create;not null" json:"created"`
}

// Follow is a directed edge from a follower (User) to a followed Author.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"authorId"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
