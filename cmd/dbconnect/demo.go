package main

import (
	"fmt"
	"io"

	"github.com/dbconnect/dbconnect/internal/config"
	"github.com/dbconnect/dbconnect/internal/connector"
	"github.com/dbconnect/dbconnect/internal/database"
	"github.com/dbconnect/dbconnect/internal/query"
)

// demoUserID is the user the walkthrough adds and later deletes.
const demoUserID = "10"

// runDemo walks the Users table: count, read the first user, add user 10
// through the AddUser procedure, count again, read user 10 back through
// GetUser as plain command text, delete user 10 and count once more.
// Every step opens and closes its own connector and reports failures
// without stopping the walkthrough.
func runDemo(cfg *config.Config, out io.Writer) {
	numberOfRecords(cfg, out)
	firstUser(cfg, out)
	addUser(cfg, out)
	numberOfRecords(cfg, out)
	getUserAsCommand(cfg, out)
	deleteUser(cfg, out)
	numberOfRecords(cfg, out)
}

func numberOfRecords(cfg *config.Config, out io.Writer) int64 {
	c := connector.OpenDefault(cfg)
	defer c.Close()

	c.ExecuteText("SELECT COUNT(*) FROM Users")
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return c.ScalarInt()
	}

	fmt.Fprintf(out, "Total number of users in database: %d\n", c.ScalarInt())
	return c.ScalarInt()
}

func firstUser(cfg *config.Config, out io.Writer) {
	c := connector.OpenDefault(cfg)
	defer c.Close()

	c.ExecuteText("SELECT * FROM Users ORDER BY Id LIMIT 1")
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return
	}
	if c.Table().RowCount() == 0 {
		fmt.Fprintln(out, "No users found")
		return
	}

	row := c.Table().Rows[0]
	fmt.Fprintf(out, "ID: %s, Name: %s %s, City: %s\n",
		cell(row, "Id"), cell(row, "FirstName"), cell(row, "LastName"), cell(row, "City"))
}

func addUser(cfg *config.Config, out io.Writer) {
	c := connector.OpenDefault(cfg)
	defer c.Close()

	params := []connector.Parameter{
		{Name: "UserId", Value: demoUserID},
		{Name: "FirstName", Value: "Tester"},
		{Name: "LastName", Value: "Ten"},
		{Name: "Age", Value: "30"},
		{Name: "City", Value: "Salem"},
		{Name: "State", Value: "OR"},
	}

	c.ExecuteStoredProcedure("AddUser", params, connector.ModeNonQuery)
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return
	}

	fmt.Fprintln(out, "Insert of new user row has been successful")
}

func getUserAsCommand(cfg *config.Config, out io.Writer) {
	c := connector.OpenDefault(cfg)
	defer c.Close()

	c.ExecuteText(getUserCommand(cfg))
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return
	}
	if c.Table().RowCount() == 0 {
		fmt.Fprintf(out, "User %s not found\n", demoUserID)
		return
	}

	row := c.Table().Rows[0]
	fmt.Fprintf(out, "ID: %s, Name: %s %s, City: %s, State: %s\n",
		cell(row, "Id"), cell(row, "FirstName"), cell(row, "LastName"), cell(row, "City"), cell(row, "State"))
}

func deleteUser(cfg *config.Config, out io.Writer) {
	c := connector.OpenDefault(cfg)
	defer c.Close()

	c.ExecuteText("DELETE FROM Users WHERE Id = " + demoUserID)
	if c.HasError() {
		fmt.Fprintln(out, c.ErrorMessage())
		return
	}

	fmt.Fprintln(out, "User successfully deleted")
}

// getUserCommand spells the GetUser call as command text for the default
// connection's provider.
func getUserCommand(cfg *config.Config) string {
	entry, err := cfg.Default()
	if err == nil {
		if driver, err := database.DriverName(entry.Provider()); err == nil && driver == database.DriverMySQL {
			return "CALL GetUser(" + demoUserID + ")"
		}
	}
	return "SELECT * FROM GetUser(userId => " + demoUserID + ")"
}

// cell returns the named column of row as text, or "" when it is missing.
func cell(row query.Row, column string) string {
	v, _ := row.Get(column)
	return v.String()
}
