package domain

// OperatorRole 操作者角色
type OperatorRole string

const (
	OperatorRoleCustomer OperatorRole = "customer" // 顾客
	OperatorRoleAdmin    OperatorRole = "admin"    // 运营管理员
)

// Operator 由已校验的访问令牌解析出的操作者
// 账号与令牌的签发由外部认证服务负责，这里只保留鉴权所需的字段。
type Operator struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Role     OperatorRole `json:"role"`
}

// IsAdmin 判断是否为管理员
func (o *Operator) IsAdmin() bool {
	return o.Role == OperatorRoleAdmin
}
