package patterns

// DefaultData returns the built-in table content.
func DefaultData() Data {
	return Data{
		Version: "builtin-1",
		ClientAliases: map[string]string{
			"IL GUSTO FRUTTA E VERDURA DI SQUILLACIOTI FRANCESCA": "Il Gusto",
			"IL GUSTO FRUTTA E VERDURA":                           "Il Gusto",
			"IL GUSTO FRUTTA & VERDURA":                           "Il Gusto",
			"IL GUSTO":                                            "Il Gusto",
			"PIEMONTE CARNI":                                      "Piemonte Carni",
			"PIEMONTE CARNI DI CALDERA MASSIMO & C. S.A.S.":       "Piemonte Carni",
			"PIEMONTE CARNI S.A.S.":                               "Piemonte Carni",
			"AZ. AGR. LA MANDRIA S.S.":                            "La Mandria",
			"AZIENDA AGRICOLA LA MANDRIA":                         "La Mandria",
			"LA MANDRIA S.S.":                                     "La Mandria",
			"BARISONE E BALDON SRL":                               "Barisone E Baldon",
			"BARISONE E BALDON S.R.L.":                            "Barisone E Baldon",
			"BARISONE & BALDON S.R.L.":                            "Barisone E Baldon",
			"MAROTTA S.R.L.":                                      "Marotta",
			"MAROTTA SRL":                                         "Marotta",
			"BOREALE S.R.L.":                                      "Boreale",
			"BOREALE SRL":                                         "Boreale",
			"DONAC S.R.L.":                                        "Donac",
			"DONAC SRL":                                           "Donac",
			"ARDITI F.LLI S.R.L.":                                 "Arditi F.lli",
			"ARUDI MIRELLA":                                       "Arudi Mirella",
			"MOLINETTO SALUMI E FORMAGGI S.R.L.":                  "Molinetto Salumi",
			"MOLE MARKET SRL":                                     "Mole Market",
			"PANETTERIA PISTONE RENZO":                            "Panetteria Pistone",
			"AZ.AGR.ISABELLA DI CONTI STEFANO":                    "Azienda Isabella",
			"BOTTEGA DELLA CARNE DI AVIDANO SILVANA":              "Bottega Della Carne",
		},
		ClientCodes: map[string]string{
			"20001": "MOLE MARKET SRL",
			"20322": "DONAC S.R.L.",
			"20283": "AZ. AGR. LA MANDRIA S.S. DI GOIA E. E CAPRA S. S.S.",
		},
		InternalCodeAddresses: map[string]string{
			"701029": "VIA CAVOUR, 61 14100 ASTI AT",
			"701134": "VIA FONTANA, 4 14100 ASTI AT",
			"701168": "VIA REPERGO, 40 14057 ISOLA D'ASTI AT",
			"701179": "P.ZA DEL POPOLO, 3 14046 MOMBARUZZO AT",
			"701184": "VIA MOLINETTO, 24 15122 ALESSANDRIA AL",
			"701205": "VIA GIANOLI, 64 15020 MURISENGO AL",
			"701207": "VIA REGIONE ISOLA, 2/A C/O ARDITI FRATELLI 15030 ROSIGNANO MONFERRATO AL",
			"701209": "VIALE RISORGIMENTO, 162 14053 CANELLI AT",
			"701213": "VIA CHIVASSO, 7 15020 MURISENGO AL",
		},
		OrderCodeAddresses: map[string]string{
			"507A085AS00704": "VIA CAVOUR, 61 14100 ASTI AT",
			"507A865AS02780": "VIA FONTANA, 4 14100 ASTI AT",
			"507A865AS02772": "VIA MOLINETTO, 24 15122 ALESSANDRIA AL",
			"507A865AS02790": "VIA REGIONE ISOLA, 2/A C/O ARDITI FRATELLI 15030 ROSIGNANO MONFERRATO AL",
			"507A865AS02789": "VIALE RISORGIMENTO, 162 14053 CANELLI AT",
			"507A865AS02786": "VIA CHIVASSO, 7 15020 MURISENGO AL",
		},
		ArticleCodes: []string{
			"070017", "070056", "070057", "200000", "200016", "200523", "200527",
			"200553", "200575", "200576", "DL000301", "PS000034", "PS000077",
			"PS000386", "VS000012", "VS000169", "VS000198", "VS000425", "VS000881",
			"VS000891", "PIRR002", "PIRR003", "PIRR004",
		},
		ExcludedOrderWords: []string{
			"TERMINI", "CONDIZIONI", "PAGAMENTO", "CONSEGNA", "NOTE", "VEDI",
			"SEGUONO", "NOSTRO", "VOSTRO", "DATA", "TRASPORTO", "SPEDIZIONE", "RITIRO",
		},
		Units: []string{"PZ", "KG", "LT", "MT", "CF", "CT", "GR", "ML", "NR", "BT", "SC", "PF"},
		CompanyForms: []string{
			"S.R.L.", "S.R.L.S.", "S.P.A.", "S.N.C.", "S.A.S.", "S.S.", "S.C.", "S.C.A.R.L.",
			"COOP", "& C.", "& FIGLI", "& F.LLI", "SARL", "SA", "LTD", "GMBH", "AG", "BV", "NV",
		},
		StreetTypes: []string{
			"VIA", "VIALE", "V.LE", "CORSO", "C.SO", "PIAZZA", "P.ZA", "P.ZZA",
			"PIAZZALE", "P.LE", "STRADA", "STR.", "BORGO", "VICOLO", "V.LO",
			"LARGO", "L.GO", "CONTRADA", "C.DA", "LUNGOMARE",
		},
		LocalityQualifiers: []string{
			"LOC.", "LOCALITA'", "LOCALITÀ", "FRAZ.", "FRAZIONE", "REGIONE", "BORGATA", "CASCINA",
		},
		IssuerKeywords: []string{
			"MAGLIANO ALFIERI", "C.SO G. MARCONI", "CORSO MARCONI", "G. MARCONI",
			"ALFIERI SPECIALITA", "12050 MAGLIANO",
		},
		IssuerVATNumbers: []string{"03247720042"},
		CarrierKeywords:  []string{"S.A.F.I.M", "SAFIM", "SUPEJA", "GALLINO", "NONE TO"},
		CarrierMarkers: []string{
			"VETTORE", "VETTORI", "TRASPORTATORE", "CARRIER",
			"TRASPORTO A MEZZO", "TRASPORTO A CURA",
		},
		DeliveryMarkers: []string{
			"LUOGO DI CONSEGNA", "INDIRIZZO DI CONSEGNA", "DESTINAZIONE MERCE",
			"CONSEGNARE A", "DELIVERY ADDRESS", "SHIP TO", "DESTINATARIO MERCE",
			"CONSEGNA PRESSO", "RECAPITO CONSEGNA", "PUNTO DI CONSEGNA", "DESTINAZIONE",
		},
		CustomerMarkers: []string{
			"SPETT.LE", "SPETTABILE", "DESTINATARIO", "CLIENTE", "INTESTATARIO",
			"RAGIONE SOCIALE", "DENOMINAZIONE", "CUSTOMER", "SOLD TO",
		},
		AdditionalInfoMarkers: []string{"INGR.", "INGRESSO", "SCARICO", "ORARIO"},
		VATRates:              []int{4, 10, 22},
		DefaultVATRate:        10,
		DefaultUnit:           "PZ",
	}
}

// Default returns the built-in tables.
func Default() *Tables {
	t, err := New(DefaultData())
	if err != nil {
		panic("patterns: invalid built-in tables: " + err.Error())
	}
	return t
}
