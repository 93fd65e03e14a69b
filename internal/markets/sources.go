package markets

import "strings"

// Known market ids
const (
	SP500       = "sp500"
	Nasdaq100   = "nasdaq100"
	EuroStoxx50 = "eurostoxx50"
	CAC40       = "cac40"
	FTSEMIB     = "ftse_mib"
	DAX40       = "dax40"
	IBEX35      = "ibex35"
)

// DefaultSources returns the built-in market list sources
func DefaultSources() []Source {
	return []Source{
		{
			Market:      SP500,
			Description: "S&P 500 - US Large Cap",
			URL:         "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
			Columns:     []string{"Symbol"},
			// Yahoo 표기: BRK.B → BRK-B
			Transform: func(s string) string { return strings.ReplaceAll(s, ".", "-") },
		},
		{
			Market:      Nasdaq100,
			Description: "NASDAQ 100 - US Tech",
			URL:         "https://en.wikipedia.org/wiki/Nasdaq-100",
			Columns:     []string{"Ticker", "Symbol"},
		},
		{
			Market:      EuroStoxx50,
			Description: "Euro Stoxx 50 - European Blue Chips",
			URL:         "https://en.wikipedia.org/wiki/EURO_STOXX_50",
			Columns:     []string{"Ticker"},
			Fallback:    euroStoxx50Static,
		},
		{
			Market:      CAC40,
			Description: "CAC 40 - France",
			URL:         "https://en.wikipedia.org/wiki/CAC_40",
			Columns:     []string{"Ticker"},
			Transform:   withSuffix(".PA"),
			Fallback:    cac40Static,
		},
		{Market: FTSEMIB, Description: "FTSE MIB - Italy", Fallback: ftseMIBStatic},
		{Market: DAX40, Description: "DAX 40 - Germany", Fallback: dax40Static},
		{Market: IBEX35, Description: "IBEX 35 - Spain", Fallback: ibex35Static},
	}
}

func withSuffix(suffix string) func(string) string {
	return func(s string) string {
		if strings.HasSuffix(s, suffix) {
			return s
		}
		return s + suffix
	}
}

var euroStoxx50Static = []string{
	"ADS.DE", "AI.PA", "AIR.PA", "ALV.DE", "ASML.AS", "BAS.DE", "BAYN.DE",
	"BBVA.MC", "BMW.DE", "BNP.PA", "CRH.L", "CS.PA", "DG.PA", "DHL.DE",
	"DTE.DE", "ENEL.MI", "ENGI.PA", "ENI.MI", "EL.PA", "FRE.DE",
	"IBE.MC", "IFX.DE", "ISP.MI", "ITX.MC", "KER.PA", "LIN.DE", "MC.PA",
	"MBG.DE", "MRK.DE", "MUV2.DE", "OR.PA", "ORA.PA", "PRX.AS", "RMS.PA",
	"RWE.DE", "SAN.MC", "SAN.PA", "SAP.DE", "SIE.DE", "STLA.PA", "SU.PA",
	"TEF.MC", "TTE.PA", "UCG.MI", "VNA.DE", "VOW3.DE",
}

var cac40Static = []string{
	"AI.PA", "AIR.PA", "ALO.PA", "ATO.PA", "BN.PA", "BNP.PA", "CAP.PA",
	"CS.PA", "DG.PA", "DSY.PA", "EL.PA", "ENGI.PA", "ERF.PA", "GLE.PA",
	"HO.PA", "KER.PA", "LR.PA", "MC.PA", "ML.PA", "MT.PA", "OR.PA",
	"ORA.PA", "PUB.PA", "RI.PA", "RMS.PA", "RNO.PA", "SAF.PA", "SAN.PA",
	"SGO.PA", "STLA.PA", "STM.PA", "SU.PA", "TEP.PA", "TTE.PA", "URW.PA",
	"VIE.PA", "VIV.PA", "WLN.PA",
}

var ftseMIBStatic = []string{
	"A2A.MI", "AMP.MI", "AZM.MI", "BGN.MI", "BMED.MI", "BPE.MI", "BZU.MI",
	"CPR.MI", "DIA.MI", "ENEL.MI", "ENI.MI", "ERG.MI", "FBK.MI", "G.MI",
	"HER.MI", "IGD.MI", "IP.MI", "ISP.MI", "LDO.MI", "MB.MI", "MONC.MI",
	"NEXI.MI", "PIRC.MI", "PRY.MI", "PST.MI", "REC.MI", "RACE.MI", "SPM.MI",
	"SRG.MI", "STLA.MI", "TEN.MI", "TIT.MI", "TRN.MI", "UCG.MI", "UNI.MI",
}

var dax40Static = []string{
	"1COV.DE", "ADS.DE", "AIR.DE", "ALV.DE", "BAS.DE", "BAYN.DE", "BEI.DE",
	"BMW.DE", "CBK.DE", "CON.DE", "DB1.DE", "DBK.DE", "DHL.DE", "DTE.DE",
	"DTG.DE", "ENR.DE", "EON.DE", "FRE.DE", "HEI.DE", "HEN3.DE", "HFG.DE",
	"HNR1.DE", "IFX.DE", "LIN.DE", "MBG.DE", "MRK.DE", "MTX.DE", "MUV2.DE",
	"PAH3.DE", "PUM.DE", "QIA.DE", "RHM.DE", "RWE.DE", "SAP.DE", "SHL.DE",
	"SIE.DE", "SY1.DE", "VNA.DE", "VOW3.DE", "ZAL.DE",
}

var ibex35Static = []string{
	"ACS.MC", "ACX.MC", "AENA.MC", "AMS.MC", "ANA.MC", "BBVA.MC", "BKT.MC",
	"CABK.MC", "CLNX.MC", "COL.MC", "ELE.MC", "ENG.MC", "FDR.MC", "FER.MC",
	"GRF.MC", "IAG.MC", "IBE.MC", "IDR.MC", "ITX.MC", "LOG.MC", "MAP.MC",
	"MEL.MC", "MRL.MC", "MTS.MC", "NTGY.MC", "RED.MC", "REP.MC", "ROVI.MC",
	"SAB.MC", "SAN.MC", "SCYR.MC", "SLR.MC", "TEF.MC", "UNI.MC", "VIS.MC",
}
