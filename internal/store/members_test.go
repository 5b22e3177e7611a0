package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"member-faucet/internal/model"
)

func TestMemberStore(t *testing.T) {
	assert := assert.New(t)

	store, err := NewMemberStore("file:members_test.db?mode=memory&cache=shared")
	assert.Nil(err)
	defer store.Close()

	block := uint32(1234)

	t.Run("record", func(t *testing.T) {
		err := store.Record(&model.CreatedMember{
			MemberID:  42,
			Handle:    "alice",
			Account:   "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
			Block:     &block,
			BlockHash: "0xabcd",
		})
		assert.Nil(err)
	})

	t.Run("record without block info", func(t *testing.T) {
		err := store.Record(&model.CreatedMember{
			MemberID: 43,
			Handle:   "bob",
			Account:  "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
		})
		assert.Nil(err)
	})

	t.Run("count", func(t *testing.T) {
		count, err := store.Count()
		assert.Nil(err)
		assert.Equal(2, count)
	})

	t.Run("recent", func(t *testing.T) {
		members, err := store.Recent(1)
		assert.Nil(err)
		assert.Len(members, 1)
	})

	t.Run("duplicate member id is rejected", func(t *testing.T) {
		err := store.Record(&model.CreatedMember{MemberID: 42, Handle: "alice2", Account: "x"})
		assert.NotNil(err)
	})
}
