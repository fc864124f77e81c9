package employees

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context, orgID string) ([]Employee, error)
	GetEmployee(ctx context.Context, orgID, employeeID string) (Employee, error)
	EmployeeByUserID(ctx context.Context, orgID, userID string) (Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) (string, error)
}
