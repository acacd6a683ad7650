package codec

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/getkayan/kayan-mongo/identity"
)

func rawValue(t *testing.T, v any) bson.RawValue {
	t.Helper()
	data, err := bson.Marshal(bson.M{"_id": v})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bson.Raw(data).Lookup("_id")
}

func TestObjectIDKeysRoundTrip(t *testing.T) {
	keys := ObjectIDKeys{}

	id := keys.Generate()
	if len(id) != 24 {
		t.Fatalf("expected 24 hex chars, got %q", id)
	}

	enc, err := keys.Encode(id)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	oid, ok := enc.(primitive.ObjectID)
	if !ok {
		t.Fatalf("expected primitive.ObjectID, got %T", enc)
	}
	if oid.Hex() != id {
		t.Fatalf("hex round trip failed: %s != %s", oid.Hex(), id)
	}

	dec, err := keys.Decode(rawValue(t, oid))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != id {
		t.Fatalf("decode round trip failed: %s != %s", dec, id)
	}
}

func TestObjectIDKeysRejectBadHex(t *testing.T) {
	keys := ObjectIDKeys{}
	for _, bad := range []string{"", "not-hex", "abc"} {
		if _, err := keys.Encode(bad); !errors.Is(err, ErrBadKey) {
			t.Errorf("Encode(%q): expected ErrBadKey, got %v", bad, err)
		}
	}
}

func TestObjectIDKeysDecodeString(t *testing.T) {
	keys := ObjectIDKeys{}
	dec, err := keys.Decode(rawValue(t, "legacy-string-id"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != "legacy-string-id" {
		t.Fatalf("expected passthrough of string ids, got %q", dec)
	}
}

func TestUUIDKeysRoundTrip(t *testing.T) {
	keys := UUIDKeys{}

	id := keys.Generate()
	enc, err := keys.Encode(id)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := keys.Decode(rawValue(t, enc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != id {
		t.Fatalf("round trip failed: %s != %s", dec, id)
	}

	if _, err := keys.Encode(uuid.Nil); !errors.Is(err, ErrBadKey) {
		t.Fatalf("expected ErrBadKey for the nil uuid, got %v", err)
	}
}

func TestNativeKeysRoundTrip(t *testing.T) {
	keys := NativeKeys[int64]{}

	enc, err := keys.Encode(42)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := keys.Decode(rawValue(t, enc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != 42 {
		t.Fatalf("round trip failed: %d", dec)
	}
}

func TestUserDocumentRoundTrip(t *testing.T) {
	m := NewMapper[string](ObjectIDKeys{})

	lockout := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := identity.NewUser[string]("alice")
	u.ID = m.Keys().Generate()
	u.NormalizedUserName = "ALICE"
	u.Email = "a@x.com"
	u.EmailConfirmed = true
	u.PasswordHash = "hash"
	u.SecurityStamp = "stamp"
	u.PhoneNumber = "555-0100"
	u.PhoneNumberConfirmed = true
	u.TwoFactorEnabled = true
	u.LockoutEnabled = true
	u.LockoutEndUTC = &lockout
	u.AccessFailedCount = 3
	u.Roles = []string{"Member", "Admin"}
	u.Claims = []identity.Claim{{Type: "scope", Value: "read"}}
	u.Logins = []identity.Login{{LoginProvider: "google", ProviderKey: "g-1"}}

	doc, err := m.UserToDocument(u)
	if err != nil {
		t.Fatalf("to document: %v", err)
	}
	if _, ok := doc["_id"].(primitive.ObjectID); !ok {
		t.Fatalf("expected _id stored as ObjectID, got %T", doc["_id"])
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := m.UserFromDocument(bson.Raw(data))
	if err != nil {
		t.Fatalf("from document: %v", err)
	}

	if got.ID != u.ID || got.UserName != u.UserName || got.NormalizedUserName != u.NormalizedUserName ||
		got.Email != u.Email || got.EmailConfirmed != u.EmailConfirmed ||
		got.PasswordHash != u.PasswordHash || got.SecurityStamp != u.SecurityStamp ||
		got.PhoneNumber != u.PhoneNumber || got.PhoneNumberConfirmed != u.PhoneNumberConfirmed ||
		got.TwoFactorEnabled != u.TwoFactorEnabled || got.LockoutEnabled != u.LockoutEnabled ||
		got.AccessFailedCount != u.AccessFailedCount {
		t.Errorf("scalar fields differ: got %+v", got)
	}
	if got.LockoutEndUTC == nil || !got.LockoutEndUTC.Equal(lockout) {
		t.Errorf("expected lockout end %v, got %v", lockout, got.LockoutEndUTC)
	}
	if !reflect.DeepEqual(got.Roles, u.Roles) || !reflect.DeepEqual(got.Claims, u.Claims) || !reflect.DeepEqual(got.Logins, u.Logins) {
		t.Errorf("embedded collections differ: got %+v", got)
	}
}

func TestEmptyCollectionsStayPresent(t *testing.T) {
	m := NewMapper[string](ObjectIDKeys{})

	u := &identity.User[string]{ID: m.Keys().Generate(), UserName: "bare"}
	doc, err := m.UserToDocument(u)
	if err != nil {
		t.Fatalf("to document: %v", err)
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := bson.Raw(data)
	for _, field := range []string{"roles", "claims", "logins"} {
		if v := raw.Lookup(field); v.Type != bson.TypeArray {
			t.Errorf("expected %s stored as an array, got %s", field, v.Type)
		}
	}

	got, err := m.UserFromDocument(raw)
	if err != nil {
		t.Fatalf("from document: %v", err)
	}
	if got.Roles == nil || got.Claims == nil || got.Logins == nil {
		t.Fatalf("expected non-nil empty collections, got %+v", got)
	}
	if len(got.Roles)+len(got.Claims)+len(got.Logins) != 0 {
		t.Fatalf("expected empty collections, got %+v", got)
	}
}

func TestRoleDocumentRoundTrip(t *testing.T) {
	m := NewMapper[string](ObjectIDKeys{})

	r := identity.NewRole[string]("Admin")
	r.ID = m.Keys().Generate()
	r.NormalizedName = "ADMIN"
	r.Claims = []identity.Claim{{Type: "perm", Value: "users.manage"}}

	doc, err := m.RoleToDocument(r)
	if err != nil {
		t.Fatalf("to document: %v", err)
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := m.RoleFromDocument(bson.Raw(data))
	if err != nil {
		t.Fatalf("from document: %v", err)
	}
	if got.ID != r.ID || got.Name != r.Name || got.NormalizedName != r.NormalizedName {
		t.Errorf("fields differ: got %+v", got)
	}
	if !reflect.DeepEqual(got.Claims, r.Claims) {
		t.Errorf("claims differ: got %+v", got.Claims)
	}
}

func TestFromDocumentRejectsBadShapes(t *testing.T) {
	m := NewMapper[string](ObjectIDKeys{})

	// missing _id
	data, err := bson.Marshal(bson.M{"userName": "alice"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := m.UserFromDocument(bson.Raw(data)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for a document without _id, got %v", err)
	}

	// wrong field type
	data, err = bson.Marshal(bson.M{"_id": primitive.NewObjectID(), "userName": 42})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := m.UserFromDocument(bson.Raw(data)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for a mistyped field, got %v", err)
	}
}

func TestIDFilterEncodesKey(t *testing.T) {
	m := NewMapper[string](ObjectIDKeys{})

	id := m.Keys().Generate()
	filter, err := m.IDFilter(id)
	if err != nil {
		t.Fatalf("id filter: %v", err)
	}
	oid, ok := filter["_id"].(primitive.ObjectID)
	if !ok {
		t.Fatalf("expected an ObjectID filter value, got %T", filter["_id"])
	}
	if oid.Hex() != id {
		t.Fatalf("filter encodes the wrong key: %s != %s", oid.Hex(), id)
	}
}
