// Package store persists a record of every membership the faucet created.
package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"member-faucet/internal/model"
)

type MemberStore struct {
	db *sqlx.DB
}

func NewMemberStore(path string) (*MemberStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &MemberStore{db}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MemberStore) init() error {
	_, err := s.db.Exec(`create table if not exists members_created (
		MemberID integer primary key,
		Handle text not null,
		Account text not null,
		Block integer,
		BlockHash text,
		CreatedAt timestamp not null
	)`)
	if err != nil {
		return fmt.Errorf("creating members table: %w", err)
	}
	return nil
}

func (s *MemberStore) Close() error {
	return s.db.Close()
}

func (s *MemberStore) Record(member *model.CreatedMember) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExec(`insert into members_created
		(MemberID, Handle, Account, Block, BlockHash, CreatedAt)
		values (:MemberID, :Handle, :Account, :Block, :BlockHash, :CreatedAt)`, member)
	if err != nil {
		return fmt.Errorf("recording created member: %w", err)
	}
	return nil
}

func (s *MemberStore) Count() (int, error) {
	var count int
	if err := s.db.Get(&count, "select count(*) from members_created"); err != nil {
		return 0, fmt.Errorf("counting created members: %w", err)
	}
	return count, nil
}

// Recent returns the most recently created members, newest first.
func (s *MemberStore) Recent(limit int) ([]model.CreatedMember, error) {
	members := []model.CreatedMember{}
	err := s.db.Select(&members,
		"select * from members_created order by CreatedAt desc limit ?", limit)
	if err != nil {
		return nil, fmt.Errorf("fetching recent members: %w", err)
	}
	return members, nil
}
