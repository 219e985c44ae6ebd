package security

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"testing"
	"ticket-ledger/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// regexpArgsMatch matches expected string args as regular expressions
// against the actual args positionally. redismock's built-in Regexp()
// cannot match HSET field names: it folds field/value pairs into a map
// and looks the pattern up as a literal key.
func regexpArgsMatch(expected, actual []interface{}) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("parameters do not match, expectation '%+v', but call to cmd '%+v'", expected, actual)
	}
	for i := range expected {
		expr, ok := expected[i].(string)
		if !ok {
			if !reflect.DeepEqual(expected[i], actual[i]) {
				return fmt.Errorf("args not `DeepEqual`, expectation: '%+v', but gave: '%+v'", expected[i], actual[i])
			}
			continue
		}
		var value string
		if b, ok := actual[i].([]byte); ok {
			value = string(b)
		} else {
			value = fmt.Sprint(actual[i])
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return err
		}
		if !re.MatchString(value) {
			return fmt.Errorf("args not match, expectation regular: '%s', but gave: '%s'", expr, value)
		}
	}
	return nil
}

func TestScannerKeyStore_Issue(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	store := NewScannerKeyStore(db)

	// Key id and hash are generated per call, match by pattern.
	redisMock.CustomMatch(regexpArgsMatch).ExpectHSet("scanner:led1", `.*`, `.*`).SetVal(1)

	keyID, secret, err := store.Issue(context.Background(), "led1")
	require.NoError(t, err)
	assert.NotEmpty(t, keyID)
	assert.Len(t, secret, 32)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScannerKeyStore_Verify(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	store := NewScannerKeyStore(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("topsecret1234567"), bcrypt.MinCost)
	require.NoError(t, err)

	redisMock.ExpectHGet("scanner:led1", "key-1").SetVal(string(hash))
	assert.NoError(t, store.Verify(context.Background(), "led1", "key-1", "topsecret1234567"))

	redisMock.ExpectHGet("scanner:led1", "key-1").SetVal(string(hash))
	assert.ErrorIs(t, store.Verify(context.Background(), "led1", "key-1", "wrong"), status.ErrScannerKeyInvalid)

	redisMock.ExpectHGet("scanner:led1", "unknown").RedisNil()
	assert.ErrorIs(t, store.Verify(context.Background(), "led1", "unknown", "whatever"), status.ErrScannerKeyInvalid)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScannerKeyStore_Revoke(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	store := NewScannerKeyStore(db)

	redisMock.ExpectHDel("scanner:led1", "key-1").SetVal(1)

	require.NoError(t, store.Revoke(context.Background(), "led1", "key-1"))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
