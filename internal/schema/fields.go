package schema

// FieldType is the expected type of a canonical field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInt      FieldType = "int"
	TypeFloat    FieldType = "float"
	TypeDatetime FieldType = "datetime"
	TypeTime     FieldType = "time"
)

// Canonical field names.
const (
	FieldCustomerID     = "customer_id"
	FieldOrderID        = "order_id"
	FieldDate           = "date"
	FieldTime           = "time"
	FieldProductName    = "product_name"
	FieldProductType    = "product_type"
	FieldProductPrice   = "product_price"
	FieldQuantity       = "quantity"
	FieldSubtotal       = "subtotal"
	FieldDiscountAmount = "discount_amount"
	FieldTotalAmount    = "total_amount"
	FieldTaxAmount      = "tax_amount"
	FieldCustomerName   = "customer_name"
	FieldCustomerEmail  = "customer_email"
	FieldPaymentStatus  = "payment_status"
	FieldPaymentMethod  = "payment_method"
	FieldReferralSource = "referral_source"
	FieldAmount         = "amount"
	FieldNetAmount      = "net_amount"
	FieldAmountRefunded = "amount_refunded"
	FieldFee            = "fee"
	FieldNet            = "net"
	FieldCreatedUTC     = "created_utc"
)

// FieldMapping describes one canonical field and the header spellings that
// map onto it. Several mappings may share a canonical name; the earlier one
// decides the type when both apply.
type FieldMapping struct {
	Name     string
	Required bool
	Type     FieldType
	Aliases  []string
}

// DefaultFields is the alias table in registration order. Header matching
// walks it top to bottom and stops at the first hit.
var DefaultFields = []FieldMapping{
	{Name: FieldCustomerID, Required: true, Type: TypeString,
		Aliases: []string{"Customer ID", "customer_id", "customerid", "CustomerID", "customer", "id"}},
	{Name: FieldOrderID, Required: true, Type: TypeString,
		Aliases: []string{"Order ID", "order_id", "orderid", "OrderID", "order", "transaction_id", "Transaction ID"}},
	{Name: FieldDate, Type: TypeDatetime,
		Aliases: []string{"Date", "date", "created_date", "Created Date", "order_date", "Order Date", "timestamp"}},
	{Name: FieldTime, Type: TypeTime,
		Aliases: []string{"Time", "time", "created_time", "Created Time", "order_time", "Order Time"}},
	{Name: FieldProductName, Required: true, Type: TypeString,
		Aliases: []string{"Product Name", "product_name", "productname", "ProductName", "item", "Item Name", "product", "Product"}},
	{Name: FieldProductType, Type: TypeString,
		Aliases: []string{"Product Type", "product_type", "category", "Category", "type", "Type"}},
	{Name: FieldProductPrice, Type: TypeFloat,
		Aliases: []string{"Product Price", "product_price", "productprice", "ProductPrice", "price", "unit_price", "Unit Price"}},
	{Name: FieldQuantity, Type: TypeInt,
		Aliases: []string{"Quantity", "quantity", "qty", "Qty"}},
	{Name: FieldSubtotal, Type: TypeFloat,
		Aliases: []string{"Subtotal", "subtotal", "Sub Total", "sub_total"}},
	{Name: FieldDiscountAmount, Type: TypeFloat,
		Aliases: []string{"Discount Amount", "discount_amount", "discountamount", "DiscountAmount", "discount", "Discount"}},
	{Name: FieldTotalAmount, Required: true, Type: TypeFloat,
		Aliases: []string{"Total Amount", "total_amount", "totalamount", "TotalAmount", "total", "Total"}},
	{Name: FieldTaxAmount, Type: TypeFloat,
		Aliases: []string{"Tax Amount", "tax_amount", "taxamount", "TaxAmount", "tax", "Tax"}},
	{Name: FieldTotalAmount, Type: TypeFloat,
		Aliases: []string{"amount", "Amount"}},
	{Name: FieldCustomerName, Type: TypeString,
		Aliases: []string{"Customer Name", "customer_name", "customername", "CustomerName", "name", "Name", "Full Name", "full_name", "fullname"}},
	{Name: FieldCustomerEmail, Type: TypeString,
		Aliases: []string{"Customer Email", "customer_email", "customeremail", "CustomerEmail", "email", "Email"}},
	{Name: FieldPaymentStatus, Type: TypeString,
		Aliases: []string{"Payment Status", "payment_status", "paymentstatus", "PaymentStatus", "status", "Status"}},
	{Name: FieldPaymentMethod, Type: TypeString,
		Aliases: []string{"Payment Method", "payment_method", "paymentmethod", "PaymentMethod", "method", "Method"}},
	{Name: FieldReferralSource, Type: TypeString,
		Aliases: []string{"Referral Source", "referral_source", "referralsource", "ReferralSource", "source", "Source"}},
	// payment processor exports
	{Name: FieldAmount, Type: TypeFloat,
		Aliases: []string{"Amount (in cents)", "amount_cents"}},
	{Name: FieldNetAmount, Type: TypeFloat,
		Aliases: []string{"Net Revenue", "net_revenue", "net_amount", "Net Amount"}},
	{Name: FieldAmountRefunded, Type: TypeFloat,
		Aliases: []string{"Amount Refunded", "amount_refunded", "amountrefunded", "AmountRefunded", "refunded"}},
	{Name: FieldFee, Type: TypeFloat,
		Aliases: []string{"Fee", "fee", "Fee Amount", "fee_amount"}},
	{Name: FieldNet, Type: TypeFloat,
		Aliases: []string{"Net", "net", "Net Amount", "net_amount"}},
	{Name: FieldCreatedUTC, Type: TypeDatetime,
		Aliases: []string{"Created (UTC)", "created_utc", "created", "Created", "created_at"}},
}

// legacyRequired are the display names whose verbatim presence marks an
// export that is already normalized.
var legacyRequired = []string{"Total Amount", "Date", "Product Name", "Customer ID", "Order ID"}

// legacyDisplayNames maps legacy display names onto canonical fields.
var legacyDisplayNames = map[string]string{
	"Total Amount":    FieldTotalAmount,
	"Date":            FieldDate,
	"Product Name":    FieldProductName,
	"Customer Name":   FieldCustomerName,
	"Customer Email":  FieldCustomerEmail,
	"Order ID":        FieldOrderID,
	"Customer ID":     FieldCustomerID,
	"Quantity":        FieldQuantity,
	"Product Price":   FieldProductPrice,
	"Tax Amount":      FieldTaxAmount,
	"Payment Status":  FieldPaymentStatus,
	"Payment Method":  FieldPaymentMethod,
	"Referral Source": FieldReferralSource,
}
