//go:build integration

package postgres

import (
	"testing"

	"activation-gate/internal/infra/db/dbtest"
)

func TestStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	dbtest.Run(t, func(t *testing.T) dbtest.Backend {
		cleanup(t)
		return dbtest.Backend{
			Codes: NewActivationCodeRepo(testPool),
			Logs:  NewActivationLogRepo(testPool),
			TM:    NewTxManager(testPool),
		}
	})
}
