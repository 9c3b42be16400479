package fieldmap

// LeadFields is the canonical shape the mapper produces. Numeric fields
// are pointers: absent and unparseable both mean nil, never zero.
type LeadFields struct {
	Name        string
	Email       string
	Whatsapp    string
	CountryCode string
	Instagram   string

	ServiceArea      string
	WorkspaceType    string
	MonthlyBilling   *float64
	WeeklyAttendance *float64
	YearsExperience  *float64
	AverageTicket    *float64

	UtmSource   string
	UtmMedium   string
	UtmCampaign string
	UtmTerm     string
	UtmContent  string
}

// synonyms maps every known normalized key spelling (English and
// Portuguese) to its canonical field. Unmapped keys are dropped by Apply.
var synonyms = map[string]string{
	"name":          "name",
	"nome":          "name",
	"nome_completo": "name",
	"full_name":     "name",
	"seu_nome":      "name",

	"email":      "email",
	"e_mail":     "email",
	"mail":       "email",
	"seu_email":  "email",
	"seu_e_mail": "email",

	"phone":     "whatsapp",
	"telefone":  "whatsapp",
	"celular":   "whatsapp",
	"whatsapp":  "whatsapp",
	"whats_app": "whatsapp",
	"fone":      "whatsapp",
	"tel":       "whatsapp",

	"country_code":   "country_code",
	"ddi":            "country_code",
	"codigo_pais":    "country_code",
	"codigo_do_pais": "country_code",

	"instagram":     "instagram",
	"insta":         "instagram",
	"arroba":        "instagram",
	"seu_instagram": "instagram",

	"service_area":    "service_area",
	"area_de_atuacao": "service_area",
	"area_atuacao":    "service_area",
	"atuacao":         "service_area",
	"segmento":        "service_area",

	"workspace_type": "workspace_type",
	"tipo_de_espaco": "workspace_type",
	"tipo_espaco":    "workspace_type",
	"onde_atende":    "workspace_type",

	"monthly_billing":    "monthly_billing",
	"faturamento":        "monthly_billing",
	"faturamento_mensal": "monthly_billing",
	"faturamento_medio":  "monthly_billing",
	"billing":            "monthly_billing",

	"weekly_attendance":       "weekly_attendance",
	"atendimentos_semana":     "weekly_attendance",
	"atendimentos_por_semana": "weekly_attendance",
	"clientes_semana":         "weekly_attendance",

	"years_experience":    "years_experience",
	"anos_de_experiencia": "years_experience",
	"anos_experiencia":    "years_experience",
	"tempo_de_profissao":  "years_experience",

	"average_ticket": "average_ticket",
	"ticket_medio":   "average_ticket",
	"valor_medio":    "average_ticket",

	"utm_source":   "utm_source",
	"utm_medium":   "utm_medium",
	"utm_campaign": "utm_campaign",
	"utm_term":     "utm_term",
	"utm_content":  "utm_content",
}

// Apply maps a normalized key/value map onto LeadFields using the synonym
// table. The stage is total: unknown keys are ignored and numeric
// coercion failures leave the field nil.
func Apply(normalized map[string]string) LeadFields {
	var lf LeadFields
	for key, val := range normalized {
		if val == "" {
			continue
		}
		switch synonyms[key] {
		case "name":
			lf.Name = val
		case "email":
			lf.Email = val
		case "whatsapp":
			lf.Whatsapp = val
		case "country_code":
			lf.CountryCode = val
		case "instagram":
			lf.Instagram = val
		case "service_area":
			lf.ServiceArea = val
		case "workspace_type":
			lf.WorkspaceType = val
		case "monthly_billing":
			lf.MonthlyBilling = ParseCurrency(val)
		case "weekly_attendance":
			lf.WeeklyAttendance = ParseCurrency(val)
		case "years_experience":
			lf.YearsExperience = ParseCurrency(val)
		case "average_ticket":
			lf.AverageTicket = ParseCurrency(val)
		case "utm_source":
			lf.UtmSource = val
		case "utm_medium":
			lf.UtmMedium = val
		case "utm_campaign":
			lf.UtmCampaign = val
		case "utm_term":
			lf.UtmTerm = val
		case "utm_content":
			lf.UtmContent = val
		}
	}
	return lf
}
