//go:build integration

package mysql

import (
	"testing"

	"activation-gate/internal/infra/db/dbtest"
)

func TestStoreContract(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) dbtest.Backend {
		cleanup(t)
		return dbtest.Backend{
			Codes: NewActivationCodeRepo(testDB),
			Logs:  NewActivationLogRepo(testDB),
			TM:    NewTxManager(testDB),
		}
	})
}
