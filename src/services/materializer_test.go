package services

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMaterializeSkipsWhenTicketsExist(t *testing.T) {
	d, mock := NewMockDB()
	materializer := NewMaterializer(d)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "e_tickets" WHERE order_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := materializer.Materialize(5)
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestMaterializeIssuesOnePerUnit(t *testing.T) {
	d, mock := NewMockDB()
	materializer := NewMaterializer(d)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "e_tickets" WHERE order_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations" WHERE (order_id = $1 AND status = $2)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_type_id", "order_id", "user_id", "qty", "status"}).
			AddRow(1, 10, 5, 2, 2, "confirmed"))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "e_tickets"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "e_tickets"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err := materializer.Materialize(5)
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}
