package services

import (
	"regexp"
	"testing"
	"time"

	"tixmart/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newTestSweeper() (*Sweeper, sqlmock.Sqlmock) {
	d, mock := NewMockDB()
	manager := NewManager(d, NewLedger(d), 15*time.Minute)
	return NewSweeper(d, manager, 500), mock
}

func TestSweepNothingDue(t *testing.T) {
	sweeper, mock := newTestSweeper()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","order_id" FROM "reservations" WHERE (status = $1 AND expires_at <= $2)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))

	summary := sweeper.Sweep()
	assert.Equal(t, 0, summary.Expired)
	assert.Equal(t, 0, summary.Failed)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestSweepExpiresDueReservation(t *testing.T) {
	sweeper, mock := newTestSweeper()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","order_id" FROM "reservations" WHERE (status = $1 AND expires_at <= $2)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}).AddRow(1, 5))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations" WHERE id = $1`)).
		WillReturnRows(reservationRows(types.RESERVATION_PENDING, time.Now().Add(-time.Minute)))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ticket_types" SET "held"=held - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reservations" WHERE (order_id = $1 AND status IN ($2,$3))`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary := sweeper.Sweep()
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 0, summary.Failed)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestSweepLeavesOrderWithLiveReservations(t *testing.T) {
	sweeper, mock := newTestSweeper()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","order_id" FROM "reservations" WHERE (status = $1 AND expires_at <= $2)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}).AddRow(1, 5))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations" WHERE id = $1`)).
		WillReturnRows(reservationRows(types.RESERVATION_PENDING, time.Now().Add(-time.Minute)))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reservations" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "ticket_types" SET "held"=held - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reservations" WHERE (order_id = $1 AND status IN ($2,$3))`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	summary := sweeper.Sweep()
	assert.Equal(t, 1, summary.Expired)
	assert.Nil(t, mock.ExpectationsWereMet())
}
