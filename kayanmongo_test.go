package kayanmongo

import (
	"reflect"
	"testing"

	"github.com/getkayan/kayan-mongo/domain"
	"github.com/getkayan/kayan-mongo/store"
)

type recordingDatabase struct {
	names []string
}

func (d *recordingDatabase) Collection(name string) domain.Collection {
	d.names = append(d.names, name)
	return nil
}

func TestStoresBindConfiguredCollections(t *testing.T) {
	db := &recordingDatabase{}

	NewUserStore(db)
	NewRoleStore(db)
	NewUserStoreIn(db, "Members")
	NewRoleStoreIn(db, "Groups")

	want := []string{
		store.DefaultUsersCollection,
		store.DefaultRolesCollection,
		"Members",
		"Groups",
	}
	if !reflect.DeepEqual(db.names, want) {
		t.Fatalf("expected collections %v, got %v", want, db.names)
	}
}
