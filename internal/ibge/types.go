package ibge

// Municipality is the normalized identity of one municipality.
type Municipality struct {
	Code string
	Name string
	UF   string
}

type ufRef struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

type mesorregiao struct {
	UF *ufRef `json:"UF"`
}

type microrregiao struct {
	Mesorregiao *mesorregiao `json:"mesorregiao"`
}

type regiaoIntermediaria struct {
	UF *ufRef `json:"UF"`
}

type regiaoImediata struct {
	RegiaoIntermediaria *regiaoIntermediaria `json:"regiao-intermediaria"`
}

// rawMunicipio is one entry of /v1/localidades/municipios.
type rawMunicipio struct {
	ID             int64           `json:"id"`
	Nome           string          `json:"nome"`
	Microrregiao   *microrregiao   `json:"microrregiao"`
	RegiaoImediata *regiaoImediata `json:"regiao-imediata"`
}

// uf resolves the state code from whichever regional hierarchy is present.
func (m rawMunicipio) uf() string {
	if m.Microrregiao != nil && m.Microrregiao.Mesorregiao != nil && m.Microrregiao.Mesorregiao.UF != nil {
		return m.Microrregiao.Mesorregiao.UF.Sigla
	}
	if m.RegiaoImediata != nil && m.RegiaoImediata.RegiaoIntermediaria != nil && m.RegiaoImediata.RegiaoIntermediaria.UF != nil {
		return m.RegiaoImediata.RegiaoIntermediaria.UF.Sigla
	}
	return ""
}

// rawAgregado is one variable block of the SIDRA aggregates API.
type rawAgregado struct {
	ID         string `json:"id"`
	Variavel   string `json:"variavel"`
	Resultados []struct {
		Series []struct {
			Localidade struct {
				ID   string `json:"id"`
				Nome string `json:"nome"`
			} `json:"localidade"`
			Serie map[string]string `json:"serie"`
		} `json:"series"`
	} `json:"resultados"`
}
